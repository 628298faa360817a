package scanning

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/zombor/receipt-analyzer/internal/config"
)

// OpenAI implements the Scanner interface against any OpenAI-compatible
// chat completions endpoint
type OpenAI struct {
	client    *openai.Client
	maxTokens int
}

// NewOpenAI creates a new OpenAI Scanner instance
func NewOpenAI(cfg config.Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientConfig),
		maxTokens: maxTokens,
	}, nil
}

// ScanReceipt sends one user message holding the prompt and the image
func (o *OpenAI) ScanReceipt(ctx context.Context, req *AnalysisRequest) (*Receipt, error) {
	message := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: req.DataURL(),
				},
			},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  []openai.ChatCompletionMessage{message},
		MaxTokens: o.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("calling chat completions: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return parseReceiptJSON(resp.Choices[0].Message.Content)
}

// Close is a no-op; the HTTP client holds no resources of its own
func (o *OpenAI) Close() error {
	return nil
}
