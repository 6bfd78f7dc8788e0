package middleware

import (
	"net/http"

	logpkg "github.com/benvon/smart-planner/internal/logger"
	"github.com/benvon/smart-planner/internal/request"
	"go.uber.org/zap"
)

// RequireUserID reads the caller identity from the X-User-ID header and stores it in the
// request context. Requests without a valid UUID are refused with 401.
func RequireUserID(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := request.ParseUserID(r)
			if !ok {
				logger.Debug("user_id_rejected",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("raw_user_id", logpkg.SanitizeUserID(r.Header.Get(request.UserIDHeader))),
				)
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized",
					"A valid "+request.UserIDHeader+" header is required", logger)
				return
			}
			if info := requestInfoFrom(r.Context()); info != nil {
				info.userID = userID.String()
			}
			next.ServeHTTP(w, r.WithContext(request.WithUserID(r.Context(), userID)))
		})
	}
}
