package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// envelope is the body shape of every client route.
type envelope struct {
	Err    int         `json:"err"`
	ErrMsg *string     `json:"errmsg"`
	Data   interface{} `json:"data"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Data: data})
}

// fail writes a failure envelope; the HTTP status doubles as the err code.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Err: status, ErrMsg: &msg})
}
