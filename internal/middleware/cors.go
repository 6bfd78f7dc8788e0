package middleware

import (
	"net/http"

	"github.com/benvon/smart-planner/internal/request"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// DefaultCORSOrigin is allowed when no origins are configured.
const DefaultCORSOrigin = "http://localhost:3000"

// CORS wraps rs/cors with the planner API's methods and headers.
func CORS(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{DefaultCORSOrigin}
	}
	logger.Info("cors_configured", zap.Strings("allowed_origins", origins))

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", request.UserIDHeader},
	})
	return c.Handler
}
