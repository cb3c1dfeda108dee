package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prism-scoring/internal/domain"
	"prism-scoring/internal/service"
)

const (
	defaultSimilarK = 5
	maxSimilarK     = 50
)

type resultsReader interface {
	Fetch(ctx context.Context, req service.FetchRequest) (domain.Profile, error)
	Similar(ctx context.Context, req service.FetchRequest, k int) ([]domain.SimilarProfile, error)
}

// ResultsHandler es el lado de lectura: token compartible o duenio autenticado.
type ResultsHandler struct {
	logger  *zap.Logger
	results resultsReader
}

func NewResultsHandler(logger *zap.Logger, results resultsReader) *ResultsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsHandler{logger: logger, results: results}
}

// GetResults maneja GET /results/:session_id?share_token=.
func (h *ResultsHandler) GetResults(c *gin.Context) {
	profile, err := h.results.Fetch(c.Request.Context(), fetchRequest(c))
	if err != nil {
		writeServiceError(c, h.logger, "fetch results", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetSimilar maneja GET /results/:session_id/similar?k=.
func (h *ResultsHandler) GetSimilar(c *gin.Context) {
	k := defaultSimilarK
	if raw := c.Query("k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid k"})
			return
		}
		k = min(v, maxSimilarK)
	}
	out, err := h.results.Similar(c.Request.Context(), fetchRequest(c), k)
	if err != nil {
		writeServiceError(c, h.logger, "similar profiles", err)
		return
	}
	if out == nil {
		out = []domain.SimilarProfile{}
	}
	c.JSON(http.StatusOK, gin.H{"similar": out})
}

func fetchRequest(c *gin.Context) service.FetchRequest {
	req := service.FetchRequest{
		SessionID:  c.Param("session_id"),
		ShareToken: c.Query("share_token"),
		ClientKey:  c.ClientIP(),
	}
	if claims, ok := GetAuthClaims(c); ok {
		req.CallerUserID = claims.UserID
	}
	return req
}
