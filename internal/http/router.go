package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prism-scoring/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
// metrics puede ser nil; en ese caso no se expone /metrics.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	allowedOrigins []string,
	scoringH *ScoringHandler,
	resultsH *ResultsHandler,
	metrics http.Handler,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()

	// Middlewares basicos: logging, recovery y CORS.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())
	if mw := corsMiddleware(allowedOrigins); mw != nil {
		r.Use(mw)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("", jsonContentTypeMiddleware())

	sessions := api.Group("/sessions", JWTAuthMiddleware(jwtSvc))
	sessions.POST("/:id/score", scoringH.ScoreSession)
	sessions.POST("/:id/share-token", scoringH.IssueShareToken)

	admin := api.Group("/admin", JWTAuthMiddleware(jwtSvc), AdminOnlyMiddleware())
	admin.POST("/recompute", scoringH.Recompute)

	results := api.Group("/results", OptionalJWTMiddleware(jwtSvc))
	results.GET("/:session_id", resultsH.GetResults)
	results.GET("/:session_id/similar", resultsH.GetSimilar)

	return r
}

// corsMiddleware devuelve nil si no hay origenes configurados. "*" habilita todos.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cleaned := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range cleaned {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = cleaned
	return cors.New(cfg)
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
