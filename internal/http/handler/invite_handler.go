package handler

import (
	"fmt"
	"net/http"

	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

type InviteHandler struct {
	inviteService *service.InviteService
	logger        *zap.Logger
}

func NewInviteHandler(inviteService *service.InviteService, logger *zap.Logger) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		logger:        logger,
	}
}

// Create godoc
// @Summary Invite dealer
// @Description Create a password protected invite. The response carries the dealer access token.
// @Tags Invites
// @Accept json
// @Produce json
// @Param id path int true "Bid package ID"
// @Param request body domain.CreateInviteRequest true "Dealer and password"
// @Success 201 {object} domain.InviteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/invites [post]
func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	packageID, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	var req domain.CreateInviteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	invite, err := h.inviteService.Create(r.Context(), packageID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create invite")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/invites/%d", invite.ID))
	respondJSON(w, http.StatusCreated, invite)
}

// List godoc
// @Summary List invites
// @Tags Invites
// @Produce json
// @Param id path int true "Bid package ID"
// @Success 200 {array} domain.InviteDTO
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/invites [get]
func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	packageID, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	invites, err := h.inviteService.List(r.Context(), packageID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list invites")
		return
	}

	respondJSON(w, http.StatusOK, invites)
}

// Disable godoc
// @Summary Disable invite
// @Description Locks the dealer out; the bid and its versions are kept
// @Tags Invites
// @Produce json
// @Param inviteId path int true "Invite ID"
// @Success 200 {object} domain.InviteDTO
// @Failure 404 {object} domain.APIError
// @Router /invites/{inviteId}/disable [post]
func (h *InviteHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, true)
}

// Enable godoc
// @Summary Enable invite
// @Tags Invites
// @Produce json
// @Param inviteId path int true "Invite ID"
// @Success 200 {object} domain.InviteDTO
// @Failure 404 {object} domain.APIError
// @Router /invites/{inviteId}/enable [post]
func (h *InviteHandler) Enable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, false)
}

func (h *InviteHandler) setDisabled(w http.ResponseWriter, r *http.Request, disabled bool) {
	inviteID, err := uintParam(r, "inviteId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invite ID")
		return
	}

	invite, err := h.inviteService.SetDisabled(r.Context(), inviteID, disabled)
	if err != nil {
		handleServiceError(w, h.logger, err, "update invite")
		return
	}

	respondJSON(w, http.StatusOK, invite)
}

// ChangePassword godoc
// @Summary Change invite password
// @Tags Invites
// @Accept json
// @Produce json
// @Param inviteId path int true "Invite ID"
// @Param request body domain.ChangePasswordRequest true "New password"
// @Success 200 {object} domain.InviteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /invites/{inviteId}/password [put]
func (h *InviteHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	inviteID, err := uintParam(r, "inviteId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid invite ID")
		return
	}

	var req domain.ChangePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	invite, err := h.inviteService.ChangePassword(r.Context(), inviteID, req.Password)
	if err != nil {
		handleServiceError(w, h.logger, err, "change invite password")
		return
	}

	respondJSON(w, http.StatusOK, invite)
}
