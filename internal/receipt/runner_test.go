package receipt

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-analyzer/internal/scanning"
)

var _ = Describe("Runner", func() {
	var (
		analyzer *mockAnalyzer
		runner   *Runner
	)

	BeforeEach(func() {
		analyzer = newMockAnalyzer()
		runner = NewRunner(analyzer)
	})

	When("nothing is running", func() {
		It("should not be busy", func() {
			Expect(runner.Busy()).To(BeFalse())
		})

		It("should deliver exactly one outcome and close the channel", func() {
			result, err := runner.Start(context.Background(), "receipt.jpg")
			Expect(err).NotTo(HaveOccurred())

			var outcome scanning.Outcome
			Eventually(result).Should(Receive(&outcome))
			Expect(outcome.Receipt.StoreName).To(Equal("Acme"))
			Eventually(result).Should(BeClosed())
		})

		It("should pass the path through", func() {
			result, err := runner.Start(context.Background(), "/tmp/receipt.jpg")
			Expect(err).NotTo(HaveOccurred())
			Eventually(result).Should(Receive())
			Expect(analyzer.paths).To(Equal([]string{"/tmp/receipt.jpg"}))
		})
	})

	When("an analysis is in flight", func() {
		var first <-chan scanning.Outcome

		BeforeEach(func() {
			analyzer.release = make(chan struct{})
			var err error
			first, err = runner.Start(context.Background(), "first.jpg")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should be busy", func() {
			Expect(runner.Busy()).To(BeTrue())
			close(analyzer.release)
			Eventually(first).Should(Receive())
		})

		It("should refuse a second start", func() {
			second, err := runner.Start(context.Background(), "second.jpg")
			Expect(err).To(MatchError(ErrBusy))
			Expect(second).To(BeNil())
			close(analyzer.release)
			Eventually(first).Should(Receive())
		})

		It("should accept a new start once the outcome is delivered", func() {
			close(analyzer.release)
			Eventually(first).Should(Receive())

			second, err := runner.Start(context.Background(), "second.jpg")
			Expect(err).NotTo(HaveOccurred())
			Eventually(second).Should(Receive())
			Expect(analyzer.calls()).To(Equal(2))
		})
	})

	When("status is polled while analyses start", func() {
		It("should never refuse a start", func() {
			stop := make(chan struct{})
			polled := make(chan struct{})
			go func() {
				defer close(polled)
				for {
					select {
					case <-stop:
						return
					default:
						runner.Busy()
					}
				}
			}()
			defer func() {
				close(stop)
				Eventually(polled).Should(BeClosed())
			}()

			for i := 0; i < 200; i++ {
				result, err := runner.Start(context.Background(), "receipt.jpg")
				Expect(err).NotTo(HaveOccurred())
				Eventually(result).Should(Receive())
			}
			Expect(analyzer.calls()).To(Equal(200))
		})
	})
})
