package handler

import (
	"context"
	"net/http"

	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

type AwardHandler struct {
	awardService *service.AwardService
	logger       *zap.Logger
}

func NewAwardHandler(awardService *service.AwardService, logger *zap.Logger) *AwardHandler {
	return &AwardHandler{
		awardService: awardService,
		logger:       logger,
	}
}

type awardTransition func(ctx context.Context, packageID uint, req *domain.AwardRequest) (*domain.AwardOutcomeDTO, error)

func (h *AwardHandler) handle(w http.ResponseWriter, r *http.Request, transition awardTransition, operation string) {
	packageID, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	var req domain.AwardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := transition(r.Context(), packageID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, operation)
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}

// Award godoc
// @Summary Award package
// @Description Award an unawarded package to a submitted bid
// @Tags Awards
// @Accept json
// @Produce json
// @Param id path int true "Bid package ID"
// @Param request body domain.AwardRequest true "Award"
// @Success 200 {object} domain.AwardOutcomeDTO
// @Failure 404 {object} domain.APIError "invalid_bid"
// @Failure 409 {object} domain.APIError "already_awarded or same_bid"
// @Failure 422 {object} domain.APIError "invalid_bid_state or invalid_record"
// @Router /packages/{id}/award [post]
func (h *AwardHandler) Award(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.awardService.Award, "award package")
}

// Reaward godoc
// @Summary Re-award package
// @Description Move the award to a different submitted bid
// @Tags Awards
// @Accept json
// @Produce json
// @Param id path int true "Bid package ID"
// @Param request body domain.AwardRequest true "Award"
// @Success 200 {object} domain.AwardOutcomeDTO
// @Failure 404 {object} domain.APIError "invalid_bid"
// @Failure 409 {object} domain.APIError "same_bid or no_existing_award"
// @Failure 422 {object} domain.APIError "invalid_bid_state or invalid_record"
// @Router /packages/{id}/reaward [post]
func (h *AwardHandler) Reaward(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.awardService.Reaward, "reaward package")
}

// ClearAward godoc
// @Summary Clear award
// @Description Return the package to the unawarded state; every bid goes back to pending
// @Tags Awards
// @Accept json
// @Produce json
// @Param id path int true "Bid package ID"
// @Param request body domain.AwardRequest true "Who clears the award; bidId is ignored"
// @Success 200 {object} domain.AwardOutcomeDTO
// @Failure 409 {object} domain.APIError "no_existing_award"
// @Router /packages/{id}/clear-award [post]
func (h *AwardHandler) ClearAward(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.awardService.ClearAward, "clear award")
}

// Events godoc
// @Summary List award events
// @Tags Awards
// @Produce json
// @Param id path int true "Bid package ID"
// @Success 200 {array} domain.AwardEventDTO
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/award-events [get]
func (h *AwardHandler) Events(w http.ResponseWriter, r *http.Request) {
	packageID, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	events, err := h.awardService.Events(r.Context(), packageID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list award events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}
