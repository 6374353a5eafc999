package middleware

import (
	"net/http"
	"os"
	"strconv"
)

// Body limits for the JSON payloads of the funding round API. A round or an
// investment body is a handful of short string fields.
const (
	DefaultMaxBodyBytes int64 = 64 << 10
	RoundBodyBytes      int64 = 2 << 10
	InvestmentBodyBytes int64 = 1 << 10
)

// MaxBodyMiddleware enforces the server-wide body limit, MAX_BODY_BYTES or
// DefaultMaxBodyBytes.
func MaxBodyMiddleware(next http.Handler) http.Handler {
	limit := DefaultMaxBodyBytes
	if s := os.Getenv("MAX_BODY_BYTES"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			limit = v
		}
	}
	return MaxBody(limit)(next)
}

// MaxBody caps the request body at limit bytes for one route. ValidateJSON
// answers 413 when a handler reads past it.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeTooLarge(w, limit)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
