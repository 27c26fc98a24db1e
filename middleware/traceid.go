package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TraceIDKey    = "trace_id"
	TraceIDHeader = "X-Trace-ID"

	maxTraceIDLen = 128
)

type traceCtxKey struct{}

// TraceID echoes a caller-supplied X-Trace-ID or mints a UUID, and exposes
// the id on the gin context, the response header and the request context.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if !validTraceID(id) {
			id = uuid.NewString()
		}
		c.Set(TraceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), traceCtxKey{}, id))
		c.Next()
	}
}

// validTraceID accepts short printable ASCII, keeping log lines and audit
// rows free of control characters.
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}

// TraceIDFromContext returns the id attached by TraceID, or "".
func TraceIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(traceCtxKey{}).(string)
	return s
}
