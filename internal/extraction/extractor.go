package extraction

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain/entity"
)

// Extractor implements port.InvoiceExtractor using a vision-capable
// OpenAI chat model.
type Extractor struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewExtractor creates a new invoice extractor.
func NewExtractor(apiKey, model string, temperature float32, timeout time.Duration, logger *zap.Logger) *Extractor {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Extractor{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// Extract renders the PDF pages and asks the model for the structured
// invoice fields.
func (e *Extractor) Extract(ctx context.Context, pdfPath string) (*port.ExtractionResult, error) {
	pages, err := renderPDF(pdfPath)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Extracting invoice fields",
		zap.String("path", pdfPath),
		zap.Int("pages", len(pages)),
		zap.String("model", e.model))

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: extractionPrompt},
	}
	for _, page := range pages {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(page)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		MaxTokens:   4096,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("Vision API call failed", zap.Error(err))
		return nil, classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &port.ExtractionError{
			ErrorType: entity.ErrorTypeExtraction,
			Message:   "no response from vision API",
		}
	}

	content := resp.Choices[0].Message.Content
	var result port.ExtractionResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		e.logger.Error("Failed to parse extraction response",
			zap.Error(err), zap.String("content", content))
		return nil, &port.ExtractionError{
			ErrorType: entity.ErrorTypeExtraction,
			Message:   fmt.Sprintf("failed to parse response: %v", err),
		}
	}

	result.AIModel = e.model
	result.RawJSON = content

	e.logger.Info("Invoice fields extracted",
		zap.String("document_type", result.DocumentType),
		zap.String("invoice_number", result.InvoiceNumber),
		zap.Int("charges", len(result.Charges)),
		zap.String("confidence", result.OverallConfidence))
	return &result, nil
}

// classifyAPIError maps provider failures to the document error types
// that drive retry behavior.
func classifyAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &port.ExtractionError{
			ErrorType: entity.ErrorTypeAITimeout,
			Message:   "vision API call timed out",
		}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return &port.ExtractionError{
				ErrorType: entity.ErrorTypeAIRateLimit,
				Message:   fmt.Sprintf("vision API rate limited: %v", apiErr.Message),
			}
		case 408, 504:
			return &port.ExtractionError{
				ErrorType: entity.ErrorTypeAITimeout,
				Message:   fmt.Sprintf("vision API timed out: %v", apiErr.Message),
			}
		}
	}
	return &port.ExtractionError{
		ErrorType: entity.ErrorTypeExtraction,
		Message:   fmt.Sprintf("vision API call failed: %v", err),
	}
}

// Verify interface compliance
var _ port.InvoiceExtractor = (*Extractor)(nil)
