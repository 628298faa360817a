package scanning

import "context"

// NotAvailable marks a receipt field the model could not read
const NotAvailable = "N/A"

// Item is one purchased line on a receipt
type Item struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Receipt contains extracted information from a receipt.
// Every field is populated; unknown values hold NotAvailable.
type Receipt struct {
	StoreName     string `json:"store_name"`
	PaymentMethod string `json:"payment_method"`
	Items         []Item `json:"items"`
	TotalAmount   string `json:"total_amount"`
	Category      string `json:"category"`
}

// AnalysisRequest is built fresh for every scan
type AnalysisRequest struct {
	ImageBytes []byte
	Encoded    string // base64 of ImageBytes
	Prompt     string
	Model      string
}

// DataURL returns the image as a data URL. The MIME type is always image/jpeg.
func (r *AnalysisRequest) DataURL() string {
	return "data:" + imageMIMEType + ";base64," + r.Encoded
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt sends the request to the model and parses the reply
	ScanReceipt(ctx context.Context, req *AnalysisRequest) (*Receipt, error)
	// Close closes the scanner and releases resources
	Close() error
}
