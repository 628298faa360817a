package receipt

import (
	"fmt"
	"strings"

	"github.com/zombor/receipt-analyzer/internal/scanning"
)

// FormatOutcome renders an outcome as the plain-text results panel
func FormatOutcome(o scanning.Outcome) string {
	if !o.OK() {
		message := "unknown error"
		if o.Error != nil {
			message = o.Error.Message
		}
		return "Error occurred:\n" + message
	}

	r := o.Receipt
	var b strings.Builder
	b.WriteString("--- Receipt Analysis Result ---\n\n")
	fmt.Fprintf(&b, "Store Name: %s\n", r.StoreName)
	fmt.Fprintf(&b, "Payment Method: %s\n", r.PaymentMethod)
	fmt.Fprintf(&b, "Total Amount: %s\n", r.TotalAmount)
	fmt.Fprintf(&b, "Category: %s\n\n", r.Category)
	b.WriteString("--- Purchased Items List ---\n")

	if len(r.Items) == 0 {
		b.WriteString("No item list found or format error.\n")
		return b.String()
	}
	for _, item := range r.Items {
		fmt.Fprintf(&b, "- %s: %s\n", item.Name, item.Price)
	}
	return b.String()
}
