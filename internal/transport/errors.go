package transport

import (
	"errors"
	"net/http"

	"product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"

	"go.uber.org/zap"
)

const msgNotFound = "Not found."

// decodeRequest decodes and validates the body, writing a 400 response on failure
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	err := middleware.DecodeAndValidate(r, v)
	if err == nil {
		return true
	}

	logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return false
	}

	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
	return false
}

// respondServiceError maps service and repository errors onto HTTP responses
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, action string) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		logger.Debug(action+" rejected", zap.Error(err))
		middleware.RespondWithValidationErrors(w, toValidationErrors(verr))
	case errors.Is(err, service.ErrInvalidPage):
		middleware.RespondWithError(w, http.StatusNotFound, "Invalid page.")
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		logger.Debug(action+" target not found", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusNotFound, msgNotFound)
	default:
		logger.Error(action+" failed", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toValidationErrors(verr *service.ValidationError) []middleware.ValidationError {
	out := make([]middleware.ValidationError, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		out = append(out, middleware.ValidationError{Field: fe.Field, Message: fe.Message})
	}
	return out
}
