package api

import (
	"errors"
	"net/http"

	"dreamweaver-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIError is the standardized error response body.
type APIError struct {
	Message string `json:"message"`
}

// handleServiceError maps service sentinel errors onto HTTP statuses and
// aborts the request with a JSON body.
func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrProfileNotFound),
		errors.Is(err, models.ErrStoryNotFound),
		errors.Is(err, models.ErrSegmentNotFound),
		errors.Is(err, models.ErrChoiceNotFound),
		errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrGenerationUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, models.ErrParseFailure):
		status = http.StatusBadGateway
	case errors.Is(err, models.ErrContentUnsafe):
		status = http.StatusUnprocessableEntity
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, APIError{Message: err.Error()})
}
