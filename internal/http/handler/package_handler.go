package handler

import (
	"net/http"

	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

type PackageHandler struct {
	packageService  *service.PackageService
	specItemService *service.SpecItemService
	logger          *zap.Logger
}

func NewPackageHandler(packageService *service.PackageService, specItemService *service.SpecItemService, logger *zap.Logger) *PackageHandler {
	return &PackageHandler{
		packageService:  packageService,
		specItemService: specItemService,
		logger:          logger,
	}
}

// Get godoc
// @Summary Get bid package
// @Tags Packages
// @Produce json
// @Param id path int true "Bid package ID"
// @Success 200 {object} domain.BidPackageDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /packages/{id} [get]
func (h *PackageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	pkg, err := h.packageService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get package")
		return
	}

	respondJSON(w, http.StatusOK, pkg)
}

// Update godoc
// @Summary Update package settings
// @Description Change visibility and the general pricing fields dealers can quote. Omitted fields are left unchanged.
// @Tags Packages
// @Accept json
// @Produce json
// @Param id path int true "Bid package ID"
// @Param request body domain.UpdatePackageRequest true "Settings"
// @Success 200 {object} domain.BidPackageDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Unknown general pricing field"
// @Router /packages/{id} [patch]
func (h *PackageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	var req domain.UpdatePackageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pkg, err := h.packageService.UpdateSettings(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update package")
		return
	}

	respondJSON(w, http.StatusOK, pkg)
}

// ListSpecItems godoc
// @Summary List spec items
// @Tags Packages
// @Produce json
// @Param id path int true "Bid package ID"
// @Param includeInactive query bool false "Include deactivated items"
// @Success 200 {array} domain.SpecItemDTO
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/spec-items [get]
func (h *PackageHandler) ListSpecItems(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}
	includeInactive := r.URL.Query().Get("includeInactive") == "true"

	items, err := h.specItemService.List(r.Context(), id, includeInactive)
	if err != nil {
		handleServiceError(w, h.logger, err, "list spec items")
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// RemoveSpecItem godoc
// @Summary Remove spec item
// @Description Deletes the item when no bid line references it, otherwise deactivates it
// @Tags Packages
// @Produce json
// @Param id path int true "Bid package ID"
// @Param itemId path int true "Spec item ID"
// @Success 200 {object} domain.SpecItemRemovalDTO
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/spec-items/{itemId} [delete]
func (h *PackageHandler) RemoveSpecItem(w http.ResponseWriter, r *http.Request) {
	id, itemID, ok := specItemParams(w, r)
	if !ok {
		return
	}

	out, err := h.specItemService.Remove(r.Context(), id, itemID)
	if err != nil {
		handleServiceError(w, h.logger, err, "remove spec item")
		return
	}

	respondJSON(w, http.StatusOK, out)
}

// DeactivateSpecItem godoc
// @Summary Deactivate spec item
// @Tags Packages
// @Produce json
// @Param id path int true "Bid package ID"
// @Param itemId path int true "Spec item ID"
// @Success 200 {object} domain.SpecItemDTO
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/spec-items/{itemId}/deactivate [post]
func (h *PackageHandler) DeactivateSpecItem(w http.ResponseWriter, r *http.Request) {
	id, itemID, ok := specItemParams(w, r)
	if !ok {
		return
	}

	item, err := h.specItemService.Deactivate(r.Context(), id, itemID)
	if err != nil {
		handleServiceError(w, h.logger, err, "deactivate spec item")
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// ReactivateSpecItem godoc
// @Summary Reactivate spec item
// @Tags Packages
// @Produce json
// @Param id path int true "Bid package ID"
// @Param itemId path int true "Spec item ID"
// @Success 200 {object} domain.SpecItemDTO
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/spec-items/{itemId}/reactivate [post]
func (h *PackageHandler) ReactivateSpecItem(w http.ResponseWriter, r *http.Request) {
	id, itemID, ok := specItemParams(w, r)
	if !ok {
		return
	}

	item, err := h.specItemService.Reactivate(r.Context(), id, itemID)
	if err != nil {
		handleServiceError(w, h.logger, err, "reactivate spec item")
		return
	}

	respondJSON(w, http.StatusOK, item)
}

func specItemParams(w http.ResponseWriter, r *http.Request) (uint, uint, bool) {
	id, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return 0, 0, false
	}
	itemID, err := uintParam(r, "itemId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid spec item ID")
		return 0, 0, false
	}
	return id, itemID, true
}
