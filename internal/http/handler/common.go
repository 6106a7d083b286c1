package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/service"
	"go.uber.org/zap"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errors := make(map[string]string)
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			fieldName := toJSONFieldName(fe.Field())
			errors[fieldName] = formatValidationError(fe)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errors,
	})
}

// respondMessages sends the list-of-messages validation shape shared by imports, drafts and awards
func respondMessages(w http.ResponseWriter, status int, errorKey string, messages []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:     getErrorType(status),
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   strings.Join(messages, "; "),
		ErrorKey: errorKey,
		Messages: messages,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusUnprocessableEntity:
		return domain.ErrorTypeUnprocessable
	default:
		return domain.ErrorTypeInternal
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// uintParam parses a positive integer path parameter
func uintParam(r *http.Request, name string) (uint, error) {
	n, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(n), nil
}

// handleServiceError maps service errors onto HTTP responses
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error, operation string) {
	var ve *service.ValidationError
	var awardErr *service.AwardError
	switch {
	case errors.As(err, &ve):
		respondMessages(w, http.StatusUnprocessableEntity, "", ve.Messages)
	case errors.As(err, &awardErr):
		respondMessages(w, awardStatus(awardErr.Key), string(awardErr.Key), awardErr.Messages)
	case errors.Is(err, service.ErrPackageNotFound):
		respondWithError(w, http.StatusNotFound, "Bid package not found")
	case errors.Is(err, service.ErrProjectNotFound):
		respondWithError(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, service.ErrSpecItemNotFound):
		respondWithError(w, http.StatusNotFound, "Spec item not found")
	case errors.Is(err, service.ErrInviteNotFound):
		respondWithError(w, http.StatusNotFound, "Invite not found")
	case errors.Is(err, service.ErrBidNotFound):
		respondWithError(w, http.StatusNotFound, "Bid not found")
	case errors.Is(err, service.ErrInviteDisabled):
		respondWithError(w, http.StatusForbidden, "Invite has been disabled")
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, service.ErrBidNotEditable):
		respondWithError(w, http.StatusConflict, "Submitted bids cannot be edited")
	case errors.Is(err, service.ErrBidAlreadySubmitted):
		respondWithError(w, http.StatusConflict, "Bid has already been submitted")
	case errors.Is(err, service.ErrBidNotSubmitted):
		respondWithError(w, http.StatusConflict, "Bid is not submitted")
	case errors.Is(err, service.ErrBidAwarded):
		respondWithError(w, http.StatusConflict, "The awarded bid cannot be reopened")
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	default:
		logger.Error(operation+" failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func awardStatus(key service.AwardErrorKey) int {
	switch key {
	case service.AwardErrInvalidBid:
		return http.StatusNotFound
	case service.AwardErrAlreadyAwarded, service.AwardErrSameBid, service.AwardErrNoExisting:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
