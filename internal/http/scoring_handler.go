package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prism-scoring/internal/domain"
	"prism-scoring/internal/service"
)

type recomputer interface {
	Recompute(ctx context.Context, req service.RecomputeRequest) (service.RecomputeReport, error)
}

type shareTokenIssuer interface {
	Issue(ctx context.Context, sessionID, callerUserID string) (service.ShareToken, error)
}

// ScoringHandler expone el calculo de perfiles, el recalculo por lotes y la
// emision de tokens compartibles.
type ScoringHandler struct {
	logger    *zap.Logger
	scorer    service.SessionScorer
	recompute recomputer
	shares    shareTokenIssuer
}

func NewScoringHandler(logger *zap.Logger, scorer service.SessionScorer, recompute recomputer, shares shareTokenIssuer) *ScoringHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringHandler{logger: logger, scorer: scorer, recompute: recompute, shares: shares}
}

// ScoreSession maneja POST /sessions/:id/score. Solo el duenio o un admin.
func (h *ScoringHandler) ScoreSession(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	var req struct {
		Context    string  `json:"context"`
		StateIndex float64 `json:"state_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid score request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	profile, err := h.scorer.ScoreSession(c.Request.Context(), service.ScoreRequest{
		SessionID:  c.Param("id"),
		Context:    domain.ParseContext(req.Context),
		StateIndex: req.StateIndex,
		Caller:     &service.Caller{UserID: claims.UserID, Admin: claims.IsAdmin()},
	})
	if err != nil {
		writeServiceError(c, h.logger, "score session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Recompute maneja POST /admin/recompute. Las fallas por sesion van en el
// reporte; solo un error al armar el lote corta el pedido.
func (h *ScoringHandler) Recompute(c *gin.Context) {
	var req service.RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid recompute request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be non-negative"})
		return
	}

	report, err := h.recompute.Recompute(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, h.logger, "recompute", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// IssueShareToken maneja POST /sessions/:id/share-token.
func (h *ScoringHandler) IssueShareToken(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	tok, err := h.shares.Issue(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		writeServiceError(c, h.logger, "issue share token", err)
		return
	}
	c.JSON(http.StatusCreated, tok)
}
