package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newSessionRouter() *gin.Engine {
	r := gin.New()
	r.Use(Session())
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, GetSessionID(c)) })
	return r
}

func TestSession_Cookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sess-cookie"})
	req.Header.Set(SessionIDHeader, "sess-header")
	w := httptest.NewRecorder()
	newSessionRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-cookie", w.Body.String(), "cookie wins over header")
}

func TestSession_Header(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(SessionIDHeader, "sess-header")
	w := httptest.NewRecorder()
	newSessionRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-header", w.Body.String())
}

func TestSession_Missing(t *testing.T) {
	w := httptest.NewRecorder()
	newSessionRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing session")
}

func TestSession_TooLong(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(SessionIDHeader, strings.Repeat("x", 65))
	w := httptest.NewRecorder()
	newSessionRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetSessionID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", GetSessionID(c))
}
