package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/ports/inbound"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
	"github.com/rasoiops/rasoiops/pkg/jsonspan"
	"go.uber.org/zap"
)

// DefaultMaxImageBytes bounds a single uploaded image (10 MiB)
const DefaultMaxImageBytes int64 = 10 << 20

// ImageInput is a photo to extract items from. MIMEType is sniffed when empty.
type ImageInput struct {
	Data     []byte
	MIMEType string
}

// DecodeBase64Image decodes a base64 payload, accepting a leading
// "data:<mime>;base64," prefix as produced by browsers.
func DecodeBase64Image(encoded, mimeType string) (ImageInput, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.Index(encoded, ",")
		if comma == -1 {
			return ImageInput{}, apperrors.NewValidationError("malformed data URL")
		}
		header := encoded[len("data:"):comma]
		if mimeType == "" {
			mimeType = strings.TrimSuffix(header, ";base64")
		}
		encoded = encoded[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ImageInput{}, apperrors.NewValidationError("image is not valid base64").WithCause(err)
	}
	return ImageInput{Data: data, MIMEType: mimeType}, nil
}

// ExtractionResult is either a list of detected items or a parse failure.
// A parse failure always carries an empty item list.
type ExtractionResult struct {
	Items      []inbound.DetectedItem
	ParseError *jsonspan.ParseError
}

// OK reports whether the model output was decoded
func (r *ExtractionResult) OK() bool {
	return r.ParseError == nil
}

// ExtractionService turns a pantry photo into detected items
type ExtractionService struct {
	caller caller
	opts   Options
	logger *zap.Logger
}

// NewExtractionService creates the structured extraction client
func NewExtractionService(provider outbound.ModelProvider, opts Options, logger *zap.Logger) *ExtractionService {
	opts = opts.withDefaults()
	logger = logger.Named("extraction")
	return &ExtractionService{
		caller: newCaller(provider, opts, logger),
		opts:   opts,
		logger: logger,
	}
}

// Extract asks the model for the items visible in img. Unparsable output is
// reported in the result, never as an error.
func (s *ExtractionService) Extract(ctx context.Context, img ImageInput) (*ExtractionResult, error) {
	mimeType, err := s.validate(img)
	if err != nil {
		return nil, err
	}

	resp, err := s.caller.generate(ctx, OperationExtract, outbound.ModelRequest{
		Prompt:      extractionInstruction,
		Images:      []outbound.ImagePart{{MIMEType: mimeType, Data: img.Data}},
		Schema:      detectedItemsSchema,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return nil, err
	}

	detected, err := jsonspan.DecodeArray[inbound.DetectedItem](resp.Text)
	if err != nil {
		parseErr, _ := err.(*jsonspan.ParseError)
		s.opts.Metrics.AIParseFailure(s.caller.provider.Name(), OperationExtract)
		s.logger.Warn("Could not decode detected items",
			zap.Error(err),
			zap.Int("response_length", len(resp.Text)))
		return &ExtractionResult{Items: []inbound.DetectedItem{}, ParseError: parseErr}, nil
	}

	items := make([]inbound.DetectedItem, 0, len(detected))
	for _, d := range detected {
		items = append(items, normalizeDetected(d))
	}

	s.logger.Info("Extracted items from image", zap.Int("count", len(items)))
	return &ExtractionResult{Items: items}, nil
}

func (s *ExtractionService) validate(img ImageInput) (string, error) {
	if len(img.Data) == 0 {
		return "", apperrors.NewValidationError("image is empty")
	}
	if int64(len(img.Data)) > s.opts.MaxImageBytes {
		return "", apperrors.NewPayloadTooLargeError(s.opts.MaxImageBytes)
	}

	mimeType := strings.TrimSpace(img.MIMEType)
	if mimeType == "" {
		mimeType = http.DetectContentType(img.Data)
	}
	if i := strings.Index(mimeType, ";"); i != -1 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", apperrors.NewValidationError(fmt.Sprintf("unsupported content type %q", mimeType))
	}
	return mimeType, nil
}

func normalizeDetected(d inbound.DetectedItem) inbound.DetectedItem {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		d.Name = inventory.DefaultName
	}
	d.Quantity = strings.TrimSpace(d.Quantity)
	if d.Quantity == "" {
		d.Quantity = inventory.DefaultQuantity
	}
	d.Category = string(inventory.NormalizeCategory(d.Category))
	return d
}
