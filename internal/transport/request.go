package transport

import (
	"net/http"

	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// decodeRequest decodes and validates a JSON body, answering 400 itself on failure
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst interface{}) bool {
	if err := middleware.DecodeAndValidate(r, dst); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return false
	}
	return true
}

// pathID parses the {id} URL parameter
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
