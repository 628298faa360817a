package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zombor/receipt-analyzer/internal/config"
)

// MissingKeyMessage is reported when no API key is configured
const MissingKeyMessage = "API key not found.\nPlease set API_KEY in the environment or the .env file."

// ErrorInfo describes a failed analysis
type ErrorInfo struct {
	Message string `json:"message"`
}

// Outcome is the result of one analysis. Exactly one field is set.
type Outcome struct {
	Receipt *Receipt   `json:"receipt,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// Success wraps a parsed receipt
func Success(r *Receipt) Outcome {
	return Outcome{Receipt: r}
}

// Failure wraps an error message
func Failure(message string) Outcome {
	return Outcome{Error: &ErrorInfo{Message: message}}
}

// OK reports whether the outcome carries a receipt
func (o Outcome) OK() bool {
	return o.Error == nil && o.Receipt != nil
}

// Opener builds a Scanner for a configuration
type Opener func(cfg config.Config) (Scanner, error)

// Open returns the Scanner for cfg.Provider
func Open(cfg config.Config) (Scanner, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGemini(cfg)
	case config.ProviderOpenAI, "":
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Analyzer turns an image path into an Outcome. It never panics or returns
// an error; every failure becomes an ErrorInfo.
type Analyzer struct {
	cfg  config.Config
	open Opener
}

// NewAnalyzer creates an Analyzer that opens scanners with Open
func NewAnalyzer(cfg config.Config) *Analyzer {
	return NewAnalyzerWithOpener(cfg, Open)
}

// NewAnalyzerWithOpener creates an Analyzer with a custom scanner opener for testing
func NewAnalyzerWithOpener(cfg config.Config, open Opener) *Analyzer {
	return &Analyzer{
		cfg:  cfg,
		open: open,
	}
}

// Analyze reads the image at path, asks the model to extract the receipt,
// and returns the parsed record or an error message
func (a *Analyzer) Analyze(ctx context.Context, path string) Outcome {
	if a.cfg.APIKey == "" {
		return Failure(MissingKeyMessage)
	}

	model := a.cfg.ModelName()

	req, err := a.newRequest(path, model)
	if err != nil {
		return a.fail(model, path, err)
	}

	scanner, err := a.open(a.cfg)
	if err != nil {
		return a.fail(model, path, fmt.Errorf("opening scanner: %w", err))
	}
	defer scanner.Close()

	receipt, err := scanner.ScanReceipt(ctx, req)
	if err != nil {
		return a.fail(model, path, err)
	}

	return Success(receipt)
}

func (a *Analyzer) newRequest(path, model string) (*AnalysisRequest, error) {
	data, err := readImage(path)
	if err != nil {
		return nil, err
	}

	if a.cfg.Normalize {
		data, err = normalizeImage(data)
		if err != nil {
			return nil, fmt.Errorf("normalizing image: %w", err)
		}
	}

	return &AnalysisRequest{
		ImageBytes: data,
		Encoded:    EncodeBytes(data),
		Prompt:     receiptScanPrompt,
		Model:      model,
	}, nil
}

func (a *Analyzer) fail(model, path string, err error) Outcome {
	var raw string
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		raw = parseErr.Raw
	}

	slog.Error("Failed to analyze receipt",
		"model", model,
		"path", path,
		"error", err,
		"response", raw,
	)

	message := fmt.Sprintf("API call failed or parsing error (model %s): %v", model, err)
	if raw != "" {
		message += "\nResponse: " + raw
	}
	return Failure(message)
}
