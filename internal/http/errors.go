package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prism-scoring/internal/scoring"
	"prism-scoring/internal/service"
)

// writeServiceError traduce los errores de servicio a status HTTP. Los
// errores sin mapeo se loguean y salen como 500 sin detalle.
func writeServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	case errors.Is(err, service.ErrInvalidSession):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
	case errors.Is(err, scoring.ErrNoResponses):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "session has no responses"})
	default:
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
