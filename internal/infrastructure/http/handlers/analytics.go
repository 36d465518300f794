package handlers

import (
	"context"
	"net/http"

	"github.com/rasoiops/rasoiops/internal/application/analytics"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/response"
	"go.uber.org/zap"
)

// Reporter builds the sustainability dashboard
type Reporter interface {
	Report(ctx context.Context) (*analytics.Report, error)
}

// AnalyticsHandlers serves the sustainability dashboard
type AnalyticsHandlers struct {
	reporter Reporter
	logger   *zap.Logger
}

// NewAnalyticsHandlers creates the analytics handlers
func NewAnalyticsHandlers(reporter Reporter, logger *zap.Logger) *AnalyticsHandlers {
	return &AnalyticsHandlers{reporter: reporter, logger: logger.Named("analytics-api")}
}

// Sustainability handles GET /api/v1/analytics/sustainability
func (h *AnalyticsHandlers) Sustainability(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Report(r.Context())
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, h.logger, http.StatusOK, report, "")
}
