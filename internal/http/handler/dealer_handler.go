package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

// DealerHandler serves the dealer-facing routes. Dealers are identified by the invite access token in the path.
type DealerHandler struct {
	bidService    *service.BidService
	inviteService *service.InviteService
	logger        *zap.Logger
}

func NewDealerHandler(bidService *service.BidService, inviteService *service.InviteService, logger *zap.Logger) *DealerHandler {
	return &DealerHandler{
		bidService:    bidService,
		inviteService: inviteService,
		logger:        logger,
	}
}

func tokenParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "token"))
}

// Unlock godoc
// @Summary Unlock dealer access
// @Description Verify the invite password for an access token
// @Tags Dealer
// @Accept json
// @Produce json
// @Param token path string true "Invite access token"
// @Param request body domain.UnlockRequest true "Password"
// @Success 200 {object} domain.InviteDTO
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Invite disabled"
// @Failure 404 {object} domain.APIError
// @Router /dealer/{token}/unlock [post]
func (h *DealerHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req domain.UnlockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	invite, err := h.inviteService.Unlock(r.Context(), tokenParam(r), req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err, "unlock invite")
		return
	}

	respondJSON(w, http.StatusOK, invite)
}

// GetBid godoc
// @Summary Open dealer bid
// @Description Returns the dealer's bid, creating an empty draft on first access
// @Tags Dealer
// @Produce json
// @Param token path string true "Invite access token"
// @Success 200 {object} domain.BidDTO
// @Failure 403 {object} domain.APIError "Invite disabled"
// @Failure 404 {object} domain.APIError
// @Router /dealer/{token}/bid [get]
func (h *DealerHandler) GetBid(w http.ResponseWriter, r *http.Request) {
	bid, err := h.bidService.Open(r.Context(), tokenParam(r))
	if err != nil {
		handleServiceError(w, h.logger, err, "open bid")
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// SaveBid godoc
// @Summary Save draft bid
// @Description Replace the draft ledger. Lines missing from lineItems are deleted.
// @Tags Dealer
// @Accept json
// @Produce json
// @Param token path string true "Invite access token"
// @Param request body domain.SaveBidRequest true "Draft ledger"
// @Success 200 {object} domain.BidDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Bid already submitted"
// @Failure 422 {object} domain.APIError "Line validation errors"
// @Router /dealer/{token}/bid [put]
func (h *DealerHandler) SaveBid(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveBidRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	bid, err := h.bidService.SaveDraft(r.Context(), tokenParam(r), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "save bid")
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// Submit godoc
// @Summary Submit bid
// @Description Freeze the bid and record the next submission version
// @Tags Dealer
// @Produce json
// @Param token path string true "Invite access token"
// @Success 201 {object} domain.SubmissionVersionDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Bid already submitted"
// @Router /dealer/{token}/bid/submit [post]
func (h *DealerHandler) Submit(w http.ResponseWriter, r *http.Request) {
	version, err := h.bidService.Submit(r.Context(), tokenParam(r))
	if err != nil {
		handleServiceError(w, h.logger, err, "submit bid")
		return
	}

	respondJSON(w, http.StatusCreated, version)
}
