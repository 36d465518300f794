package handlers

import (
	"net/http"

	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/rasoiops/rasoiops/internal/infrastructure/http/response"
	"github.com/rasoiops/rasoiops/internal/ports/inbound"
	"github.com/rasoiops/rasoiops/pkg/errors"
	"go.uber.org/zap"
)

// RecipeHandlers handles recipe suggestion requests
type RecipeHandlers struct {
	inventory       inbound.InventoryService
	recommendations inbound.RecommendationService
	logger          *zap.Logger
}

// NewRecipeHandlers creates the recipe handlers
func NewRecipeHandlers(inv inbound.InventoryService, rec inbound.RecommendationService, logger *zap.Logger) *RecipeHandlers {
	return &RecipeHandlers{
		inventory:       inv,
		recommendations: rec,
		logger:          logger.Named("recipes-api"),
	}
}

// SuggestRequest carries the optional dietary goal
type SuggestRequest struct {
	Goal string `json:"goal"`
}

// Suggest handles POST /api/v1/recipes/suggestions. The whole inventory is
// sent; items that are already expired are left out of the prompt.
func (h *RecipeHandlers) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	views, err := h.inventory.List(r.Context())
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	if len(views) == 0 {
		response.Error(w, r, h.logger, errors.NewEmptyInventoryError())
		return
	}

	items := make([]inventory.Item, len(views))
	for i, v := range views {
		items[i] = v.Item
	}

	result, err := h.recommendations.Recommend(r.Context(), items, req.Goal)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	message := ""
	if result.ParseFailed {
		message = "The model response could not be read as recipes"
	}
	response.Success(w, h.logger, http.StatusOK, result, message)
}

// Latest handles GET /api/v1/recipes/suggestions
func (h *RecipeHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	set, ok := h.recommendations.Latest()
	if !ok {
		response.Error(w, r, h.logger, errors.NewNotFoundError("Recipe suggestions"))
		return
	}
	response.Success(w, h.logger, http.StatusOK, set, "")
}
