package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	SessionIDKey    = "session_id"
	SessionCookie   = "PHPSESSID"
	SessionIDHeader = "X-Session-ID"
)

// Session resolves the client session id from the PHPSESSID cookie or the
// X-Session-ID header and rejects requests that carry neither. The id is
// trusted as-is; there is no authentication.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || sid == "" {
			sid = c.GetHeader(SessionIDHeader)
		}
		if sid == "" || len(sid) > 64 {
			abort(c, http.StatusUnauthorized, "missing session")
			return
		}
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}

// GetSessionID returns the id stored by Session, or "".
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
