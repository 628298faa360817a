package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	jsonFence = "```json"
	fence     = "```"

	unknownItemName  = "Unknown Item"
	unknownItemPrice = "-"
)

// ParseError is returned when the model reply is not a usable JSON object.
// Raw holds the reply as received.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing receipt data: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// rawReceipt keeps each field undecoded so strings, numbers and nulls can all be accepted
type rawReceipt struct {
	StoreName     json.RawMessage `json:"store_name"`
	PaymentMethod json.RawMessage `json:"payment_method"`
	Items         json.RawMessage `json:"items"`
	TotalAmount   json.RawMessage `json:"total_amount"`
	Category      json.RawMessage `json:"category"`
}

type rawItem struct {
	Name  json.RawMessage `json:"name"`
	Price json.RawMessage `json:"price"`
}

// stripJSONFence removes a ```json ... ``` wrapper. Other text is returned trimmed.
func stripJSONFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, jsonFence) {
		return text
	}
	text = strings.TrimPrefix(text, jsonFence)
	text = strings.TrimSuffix(strings.TrimSpace(text), fence)
	return strings.TrimSpace(text)
}

// parseReceiptJSON parses the model reply into a Receipt with every field resolved
func parseReceiptJSON(text string) (*Receipt, error) {
	cleaned := stripJSONFence(text)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, &ParseError{Raw: text, Err: fmt.Errorf("no JSON object found in response")}
	}

	var raw rawReceipt
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &ParseError{Raw: text, Err: fmt.Errorf("unmarshaling json: %w", err)}
	}

	return &Receipt{
		StoreName:     fieldText(raw.StoreName, NotAvailable),
		PaymentMethod: fieldText(raw.PaymentMethod, NotAvailable),
		Items:         parseItems(raw.Items),
		TotalAmount:   fieldText(raw.TotalAmount, NotAvailable),
		Category:      fieldText(raw.Category, NotAvailable),
	}, nil
}

// parseItems accepts a list of {name, price} objects. Bare strings become
// item names; anything else in the list is skipped. A non-list yields no items.
func parseItems(data json.RawMessage) []Item {
	items := make([]Item, 0)

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return items
	}

	for _, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 {
			continue
		}
		switch elem[0] {
		case '{':
			var ri rawItem
			if err := json.Unmarshal(elem, &ri); err != nil {
				continue
			}
			items = append(items, Item{
				Name:  fieldText(ri.Name, unknownItemName),
				Price: fieldText(ri.Price, unknownItemPrice),
			})
		case '"':
			items = append(items, Item{
				Name:  fieldText(elem, unknownItemName),
				Price: unknownItemPrice,
			})
		}
	}
	return items
}

// fieldText renders a JSON value as display text. Missing, null and blank
// values give fallback; numbers keep their literal form.
func fieldText(data json.RawMessage, fallback string) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fallback
	}

	var text string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return fallback
		}
	} else {
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return fallback
		}
		text = buf.String()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	return text
}
