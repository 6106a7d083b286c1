package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/straye-as/procurement-api/internal/comparison"
	"github.com/straye-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

type ComparisonHandler struct {
	comparisonService *service.ComparisonService
	logger            *zap.Logger
}

func NewComparisonHandler(comparisonService *service.ComparisonService, logger *zap.Logger) *ComparisonHandler {
	return &ComparisonHandler{
		comparisonService: comparisonService,
		logger:            logger,
	}
}

// Compare godoc
// @Summary Compare submitted bids
// @Description Build the price matrix of submitted bids over the active catalog. The body is optional; malformed entries are ignored.
// @Tags Comparison
// @Accept json
// @Produce json
// @Param id path int true "Bid package ID"
// @Param request body comparison.Request false "Price modes, exclusions and cell overrides"
// @Success 200 {object} comparison.Result
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/comparison [post]
func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	packageID, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	var req comparison.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	result, err := h.comparisonService.Compare(r.Context(), packageID, req.Options())
	if err != nil {
		handleServiceError(w, h.logger, err, "compare bids")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
