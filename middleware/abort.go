package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientPrefix is the route prefix of the game client API, whose errors use
// the {"err","errmsg","data"} envelope.
const ClientPrefix = "/client/"

// abort ends the request with status, shaped for the route's audience.
func abort(c *gin.Context, status int, msg string) {
	if strings.HasPrefix(c.Request.URL.Path, ClientPrefix) {
		c.AbortWithStatusJSON(status, gin.H{"err": status, "errmsg": msg, "data": nil})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
