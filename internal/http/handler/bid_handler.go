package handler

import (
	"net/http"

	"github.com/straye-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

type BidHandler struct {
	bidService *service.BidService
	logger     *zap.Logger
}

func NewBidHandler(bidService *service.BidService, logger *zap.Logger) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		logger:     logger,
	}
}

// ListByPackage godoc
// @Summary List bids
// @Tags Bids
// @Produce json
// @Param id path int true "Bid package ID"
// @Success 200 {array} domain.BidDTO
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/bids [get]
func (h *BidHandler) ListByPackage(w http.ResponseWriter, r *http.Request) {
	packageID, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	bids, err := h.bidService.List(r.Context(), packageID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list bids")
		return
	}

	respondJSON(w, http.StatusOK, bids)
}

// Get godoc
// @Summary Get bid
// @Tags Bids
// @Produce json
// @Param bidId path int true "Bid ID"
// @Success 200 {object} domain.BidDTO
// @Failure 404 {object} domain.APIError
// @Router /bids/{bidId} [get]
func (h *BidHandler) Get(w http.ResponseWriter, r *http.Request) {
	bidID, err := uintParam(r, "bidId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID")
		return
	}

	bid, err := h.bidService.Get(r.Context(), bidID)
	if err != nil {
		handleServiceError(w, h.logger, err, "get bid")
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// Reopen godoc
// @Summary Reopen submitted bid
// @Description Move a submitted bid back to draft so the dealer can resubmit. The awarded bid cannot be reopened.
// @Tags Bids
// @Produce json
// @Param bidId path int true "Bid ID"
// @Success 200 {object} domain.BidDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Router /bids/{bidId}/reopen [post]
func (h *BidHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	bidID, err := uintParam(r, "bidId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID")
		return
	}

	bid, err := h.bidService.Reopen(r.Context(), bidID)
	if err != nil {
		handleServiceError(w, h.logger, err, "reopen bid")
		return
	}

	respondJSON(w, http.StatusOK, bid)
}

// Versions godoc
// @Summary List submission versions
// @Tags Bids
// @Produce json
// @Param bidId path int true "Bid ID"
// @Success 200 {array} domain.SubmissionVersionDTO
// @Failure 404 {object} domain.APIError
// @Router /bids/{bidId}/versions [get]
func (h *BidHandler) Versions(w http.ResponseWriter, r *http.Request) {
	bidID, err := uintParam(r, "bidId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bid ID")
		return
	}

	versions, err := h.bidService.Versions(r.Context(), bidID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list bid versions")
		return
	}

	respondJSON(w, http.StatusOK, versions)
}
