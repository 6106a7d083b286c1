package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

type ImportHandler struct {
	importService *service.ImportService
	maxUploadMB   int64
	logger        *zap.Logger
}

func NewImportHandler(importService *service.ImportService, maxUploadMB int64, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		maxUploadMB:   maxUploadMB,
		logger:        logger,
	}
}

// importForm is the union of the import request fields. It is filled either
// from a JSON body or from a multipart form with the CSV in the "file" field.
type importForm struct {
	PackageName string                   `json:"packageName"`
	Visibility  domain.PackageVisibility `json:"visibility"`
	Filename    string                   `json:"filename"`
	Profile     string                   `json:"profile"`
	Content     string                   `json:"content"`
}

// readImportForm writes the error response itself and reports whether the handler may continue
func (h *ImportHandler) readImportForm(w http.ResponseWriter, r *http.Request) (*importForm, bool) {
	limit := h.maxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	form := &importForm{}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(form); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
				return nil, false
			}
			respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
			return nil, false
		}
		return form, true
	}

	if err := r.ParseMultipartForm(limit); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: could not read file")
		return nil, false
	}

	form.Content = string(content)
	form.Filename = header.Filename
	form.PackageName = r.FormValue("packageName")
	form.Visibility = domain.PackageVisibility(r.FormValue("visibility"))
	form.Profile = r.FormValue("profile")
	return form, true
}

// Preview godoc
// @Summary Preview catalog import
// @Description Normalize a CSV catalog without writing anything. Row and header problems are returned in errors.
// @Tags Imports
// @Accept json,mpfd
// @Produce json
// @Param request body domain.PreviewImportRequest true "CSV content and optional profile"
// @Success 200 {object} catalog.Result
// @Failure 400 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Router /imports/preview [post]
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readImportForm(w, r)
	if !ok {
		return
	}

	req := domain.PreviewImportRequest{Profile: form.Profile, Content: form.Content}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.importService.Preview(&req))
}

// Commit godoc
// @Summary Import catalog into a new package
// @Description Create a bid package in the project from a CSV catalog. Nothing is written if any row fails validation.
// @Tags Imports
// @Accept json,mpfd
// @Produce json
// @Param projectId path int true "Project ID"
// @Param request body domain.CommitImportRequest true "Package and CSV content"
// @Success 201 {object} domain.ImportResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Row or header errors"
// @Router /projects/{projectId}/packages/import [post]
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	projectID, err := uintParam(r, "projectId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	form, ok := h.readImportForm(w, r)
	if !ok {
		return
	}

	req := domain.CommitImportRequest{
		PackageName: strings.TrimSpace(form.PackageName),
		Visibility:  form.Visibility,
		Filename:    form.Filename,
		Profile:     form.Profile,
		Content:     form.Content,
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.importService.Commit(r.Context(), projectID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "import commit")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/packages/%d", result.Package.ID))
	respondJSON(w, http.StatusCreated, result)
}

// Append godoc
// @Summary Append catalog to a package
// @Description Add CSV rows to an existing package. External ids already used in the package are suffixed (-2, -3, ...).
// @Tags Imports
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Bid package ID"
// @Param request body domain.AppendImportRequest true "CSV content"
// @Success 201 {object} domain.ImportResultDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Row or header errors"
// @Router /packages/{id}/import [post]
func (h *ImportHandler) Append(w http.ResponseWriter, r *http.Request) {
	packageID, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	form, ok := h.readImportForm(w, r)
	if !ok {
		return
	}

	req := domain.AppendImportRequest{Filename: form.Filename, Profile: form.Profile, Content: form.Content}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.importService.Append(r.Context(), packageID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "import append")
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// History godoc
// @Summary List package imports
// @Tags Imports
// @Produce json
// @Param id path int true "Bid package ID"
// @Success 200 {array} domain.ImportBatchDTO
// @Failure 404 {object} domain.APIError
// @Router /packages/{id}/imports [get]
func (h *ImportHandler) History(w http.ResponseWriter, r *http.Request) {
	packageID, err := uintParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid package ID")
		return
	}

	batches, err := h.importService.History(r.Context(), packageID)
	if err != nil {
		handleServiceError(w, h.logger, err, "import history")
		return
	}

	respondJSON(w, http.StatusOK, batches)
}
