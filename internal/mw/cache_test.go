package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calls := 0
	r := gin.New()
	r.Use(func(c *gin.Context) {
		// Stand-in for Auth.
		if c.GetHeader("X-User") == "2" {
			c.Set(contextKeyUserID, int64(2))
		} else {
			c.Set(contextKeyUserID, int64(1))
		}
		c.Next()
	})
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute))
	r.GET("/overview", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls, "user": UserID(c)})
	})
	r.GET("/fail", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	get := func(path, user string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-User", user)
		r.ServeHTTP(w, req)
		return w
	}

	first := get("/overview", "1")
	assert.JSONEq(t, `{"calls":1,"user":1}`, first.Body.String())

	second := get("/overview", "1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, `{"calls":1,"user":1}`, second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))

	other := get("/overview", "2")
	assert.JSONEq(t, `{"calls":2,"user":2}`, other.Body.String(), "entries are per user")

	get("/fail", "1")
	get("/fail", "1")
	assert.Equal(t, 4, calls, "errors are not cached")
}
