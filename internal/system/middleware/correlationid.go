package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cxtrack/sms-consent-api/internal/system/constants"
)

type contextKey string

// CorrelationIDContextKey is the request context key carrying the correlation ID.
const CorrelationIDContextKey contextKey = "correlation_id"

// CorrelationIDMiddleware propagates or assigns a correlation ID on gin routes.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := extractCorrelationID(c.Request)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set(string(CorrelationIDContextKey), correlationID)
		c.Header(constants.CorrelationIDHeaderName, correlationID)
		c.Next()
	}
}

// WrapWithCorrelationID wraps an http.Handler with correlation ID middleware.
func WrapWithCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := extractCorrelationID(r)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		w.Header().Set(constants.CorrelationIDHeaderName, correlationID)
		ctx := context.WithValue(r.Context(), CorrelationIDContextKey, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractCorrelationID(r *http.Request) string {
	headers := []string{constants.CorrelationIDHeaderName, "X-Request-ID", "X-Trace-ID"}
	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}
	return ""
}
