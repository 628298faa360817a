package scanning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/receipt-analyzer/internal/config"
)

// chatReply builds a minimal chat completions response body
func chatReply(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

var _ = Describe("OpenAI", func() {
	var (
		server  *ghttp.Server
		cfg     config.Config
		scanner *OpenAI
		req     *AnalysisRequest
		body    map[string]any
		receipt *Receipt
		err     error
	)

	capture := func(w http.ResponseWriter, r *http.Request) {
		defer GinkgoRecover()
		raw, readErr := io.ReadAll(r.Body)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(json.Unmarshal(raw, &body)).To(Succeed())
	}

	BeforeEach(func() {
		server = ghttp.NewServer()
		body = nil
		cfg = config.Config{
			Provider:  config.ProviderOpenAI,
			APIKey:    "test-key",
			BaseURL:   server.URL() + "/v1",
			MaxTokens: config.DefaultMaxTokens,
		}
		req = &AnalysisRequest{
			ImageBytes: []byte("fake image data"),
			Encoded:    EncodeBytes([]byte("fake image data")),
			Prompt:     receiptScanPrompt,
			Model:      "test-model",
		}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		var newErr error
		scanner, newErr = NewOpenAI(cfg)
		Expect(newErr).NotTo(HaveOccurred())
		receipt, err = scanner.ScanReceipt(context.Background(), req)
	})

	When("the model returns fenced JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/v1/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				capture,
				ghttp.RespondWithJSONEncoded(http.StatusOK, chatReply("```json\n{\"store_name\":\"Acme\",\"payment_method\":\"VISA\",\"items\":[{\"name\":\"Coffee\",\"price\":\"3.50\"}],\"total_amount\":\"3.50\",\"category\":\"Dining\"}\n```")),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the receipt", func() {
			Expect(receipt.StoreName).To(Equal("Acme"))
			Expect(receipt.Items).To(Equal([]Item{{Name: "Coffee", Price: "3.50"}}))
		})

		It("should send the model and token limit", func() {
			Expect(body["model"]).To(Equal("test-model"))
			Expect(body["max_tokens"]).To(BeNumerically("==", 1024))
		})

		It("should not stream", func() {
			Expect(body["stream"]).To(Or(BeNil(), BeFalse()))
		})

		It("should send one user message with a text part and an image part", func() {
			messages := body["messages"].([]any)
			Expect(messages).To(HaveLen(1))

			message := messages[0].(map[string]any)
			Expect(message["role"]).To(Equal("user"))

			parts := message["content"].([]any)
			Expect(parts).To(HaveLen(2))

			text := parts[0].(map[string]any)
			Expect(text["type"]).To(Equal("text"))
			Expect(text["text"]).To(ContainSubstring("store_name"))
			Expect(text["text"]).To(ContainSubstring(`"N/A"`))

			image := parts[1].(map[string]any)
			Expect(image["type"]).To(Equal("image_url"))
			Expect(image["image_url"].(map[string]any)["url"]).To(Equal("data:image/jpeg;base64," + req.Encoded))
		})

		It("should make exactly one call", func() {
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})
	})

	When("the model returns no choices", func() {
		BeforeEach(func() {
			reply := chatReply("")
			reply["choices"] = []any{}
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, reply))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("no choices")))
		})
	})

	When("the API rejects the key", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusUnauthorized,
				`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
				http.Header{"Content-Type": []string{"application/json"}},
			))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("calling chat completions")))
			Expect(err.Error()).To(ContainSubstring("Incorrect API key provided"))
		})

		It("should not retry", func() {
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})
	})

	When("the model replies with prose", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, chatReply("Sorry, I cannot process this.")))
		})

		It("returns a ParseError with the raw reply", func() {
			var parseErr *ParseError
			Expect(err).To(BeAssignableToTypeOf(parseErr))
			Expect(err.(*ParseError).Raw).To(Equal("Sorry, I cannot process this."))
		})
	})
})

var _ = Describe("NewOpenAI", func() {
	It("should require an API key", func() {
		_, err := NewOpenAI(config.Config{})
		Expect(err).To(MatchError(ContainSubstring("api key is required")))
	})
})
