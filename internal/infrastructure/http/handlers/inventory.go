// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rasoiops/rasoiops/internal/application/ai"
	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/domain/shared"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/response"
	"github.com/rasoiops/rasoiops/internal/ports/inbound"
	"github.com/rasoiops/rasoiops/internal/ports/outbound"
	"github.com/rasoiops/rasoiops/pkg/errors"
	"go.uber.org/zap"
)

// Extractor turns a photo into detected items
type Extractor interface {
	Extract(ctx context.Context, img ai.ImageInput) (*ai.ExtractionResult, error)
}

// PhotoMetrics records archive outcomes
type PhotoMetrics interface {
	PhotoArchived(store string, err error)
}

// InventoryHandlers handles the inventory endpoints
type InventoryHandlers struct {
	inventory     inbound.InventoryService
	extractor     Extractor
	photos        outbound.PhotoStore
	metrics       PhotoMetrics
	maxImageBytes int64
	clock         shared.Clock
	logger        *zap.Logger
}

// InventoryDeps groups the collaborators of InventoryHandlers. Photos and
// Metrics are optional.
type InventoryDeps struct {
	Inventory     inbound.InventoryService
	Extractor     Extractor
	Photos        outbound.PhotoStore
	Metrics       PhotoMetrics
	MaxImageBytes int64
	Clock         shared.Clock
}

// NewInventoryHandlers creates the inventory handlers
func NewInventoryHandlers(deps InventoryDeps, logger *zap.Logger) *InventoryHandlers {
	if deps.MaxImageBytes <= 0 {
		deps.MaxImageBytes = ai.DefaultMaxImageBytes
	}
	if deps.Clock == nil {
		deps.Clock = shared.SystemClock
	}
	return &InventoryHandlers{
		inventory:     deps.Inventory,
		extractor:     deps.Extractor,
		photos:        deps.Photos,
		metrics:       deps.Metrics,
		maxImageBytes: deps.MaxImageBytes,
		clock:         deps.Clock,
		logger:        logger.Named("inventory-api"),
	}
}

// InventoryListResponse is the body of GET /inventory
type InventoryListResponse struct {
	Items   []inventory.View          `json:"items"`
	Summary *inbound.InventorySummary `json:"summary"`
}

// ScanRequest is the JSON form of a scan upload
type ScanRequest struct {
	ImageBase64 string `json:"image_base64"`
	MIMEType    string `json:"mime_type"`
}

// ScanResponse reports what a photo added. ParseError is set when the
// model answered with something that could not be read as an item list.
type ScanResponse struct {
	Items      []inventory.View `json:"items"`
	ParseError bool             `json:"parse_error"`
	Photo      string           `json:"photo,omitempty"`
}

// List handles GET /api/v1/inventory
func (h *InventoryHandlers) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.inventory.List(r.Context())
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	summary, err := h.inventory.Summary(r.Context())
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Success(w, h.logger, http.StatusOK, InventoryListResponse{
		Items:   views,
		Summary: summary,
	}, "")
}

// Add handles POST /api/v1/inventory
func (h *InventoryHandlers) Add(w http.ResponseWriter, r *http.Request) {
	var cmd inbound.AddItemCommand
	if err := decodeJSON(r, &cmd); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	view, err := h.inventory.AddManual(r.Context(), cmd)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Success(w, h.logger, http.StatusCreated, view, "Item added")
}

// Delete handles DELETE /api/v1/inventory/{id}. Unknown ids succeed.
func (h *InventoryHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := inventory.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, h.logger, errors.NewBadRequestError("Invalid item id").WithCause(err))
		return
	}

	if _, err := h.inventory.Delete(r.Context(), id); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Scan handles POST /api/v1/inventory/scan
func (h *InventoryHandlers) Scan(w http.ResponseWriter, r *http.Request) {
	img, err := h.readImage(r)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	result, err := h.extractor.Extract(r.Context(), img)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	photo := h.archive(r.Context(), img)

	if !result.OK() {
		h.logger.Warn("Scan produced unreadable model output",
			zap.Int("raw_length", len(result.ParseError.Raw)))
		response.Success(w, h.logger, http.StatusOK, ScanResponse{
			Items:      []inventory.View{},
			ParseError: true,
			Photo:      photo,
		}, "The photo could not be read as a list of items")
		return
	}

	views, err := h.inventory.IngestDetected(r.Context(), result.Items)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if len(views) > 0 {
		status = http.StatusCreated
	}
	response.Success(w, h.logger, status, ScanResponse{Items: views, Photo: photo}, "")
}

// readImage accepts a multipart "image" field or a JSON body
func (h *InventoryHandlers) readImage(r *http.Request) (ai.ImageInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxImageBytes); err != nil {
			return ai.ImageInput{}, h.bodyError(err, "Invalid multipart form")
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return ai.ImageInput{}, errors.NewValidationError("multipart field \"image\" is required")
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
		if err != nil {
			return ai.ImageInput{}, h.bodyError(err, "Could not read image")
		}
		if int64(len(data)) > h.maxImageBytes {
			return ai.ImageInput{}, errors.NewPayloadTooLargeError(h.maxImageBytes)
		}
		mimeType := header.Header.Get("Content-Type")
		if mimeType == "application/octet-stream" {
			mimeType = ""
		}
		return ai.ImageInput{Data: data, MIMEType: mimeType}, nil
	}

	var req ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		return ai.ImageInput{}, err
	}
	if strings.TrimSpace(req.ImageBase64) == "" {
		return ai.ImageInput{}, errors.NewValidationError("image_base64 is required")
	}
	return ai.DecodeBase64Image(req.ImageBase64, req.MIMEType)
}

func (h *InventoryHandlers) bodyError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.NewPayloadTooLargeError(h.maxImageBytes)
	}
	return errors.NewBadRequestError(message).WithCause(err)
}

// archive stores the photo when a store is configured. Failures are logged
// and never fail the scan.
func (h *InventoryHandlers) archive(ctx context.Context, img ai.ImageInput) string {
	if h.photos == nil {
		return ""
	}

	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(img.Data)
	}
	key := outbound.PhotoKey(uuid.New(), h.clock(), extensionFor(mimeType))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	location, err := h.photos.Upload(ctx, key, img.Data, mimeType)
	if h.metrics != nil {
		h.metrics.PhotoArchived(h.photos.Name(), err)
	}
	if err != nil {
		h.logger.Warn("Failed to archive photo",
			zap.String("store", h.photos.Name()),
			zap.String("key", key),
			zap.Error(err))
		return ""
	}
	return location
}

func extensionFor(mimeType string) string {
	mediaType := strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	default:
		return ".bin"
	}
}

// decodeJSON decodes a JSON body, rejecting unknown fields
func decodeJSON(r *http.Request, v interface{}) error {
	return decodeBody(r, v, false)
}

// decodeOptionalJSON is decodeJSON for endpoints where the body may be omitted
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	return decodeBody(r, v, true)
}

func decodeBody(r *http.Request, v interface{}, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewPayloadTooLargeError(tooLarge.Limit)
		}
		if stderrors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return errors.NewBadRequestError("Request body is required")
		}
		return errors.NewBadRequestError("Invalid JSON body").WithCause(err)
	}
	return nil
}
