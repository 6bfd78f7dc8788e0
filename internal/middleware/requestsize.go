package middleware

import (
	"net/http"
	"strings"
)

// DefaultMaxRequestSize bounds request bodies outside the task routes.
const DefaultMaxRequestSize int64 = 1 << 20

// MaxTaskRequestSize bounds task classification bodies. It fits a full task list
// of maximum-length ASCII titles.
const MaxTaskRequestSize int64 = 8 << 20

// MaxRequestSize limits the size of request bodies
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return MaxRequestSizeByPath(maxBytes, nil)
}

// MaxRequestSizeByPath limits request bodies to maxBytes, or to the limit of the
// longest path prefix in limits that matches the request path.
func MaxRequestSizeByPath(maxBytes int64, limits map[string]int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	limitFor := func(path string) int64 {
		limit, matched := maxBytes, ""
		for prefix, n := range limits {
			if n > 0 && len(prefix) > len(matched) && strings.HasPrefix(path, prefix) {
				limit, matched = n, prefix
			}
		}
		return limit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := limitFor(r.URL.Path)
			if r.ContentLength > limit {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
					"Request body exceeds the size limit", nil)
				return
			}

			// Bodies without a Content-Length are cut off while reading.
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
