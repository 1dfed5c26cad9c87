package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(t *testing.T, incoming string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(HeaderKey, incoming)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return seen, w.Header().Get(HeaderKey)
}

func TestReusesIncomingID(t *testing.T) {
	seen, header := serve(t, "abc-123")
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", header)
}

func TestGeneratesIDForMissingOrUnsafeHeader(t *testing.T) {
	for _, incoming := range []string{"", "bad id\n", strings.Repeat("x", 65)} {
		seen, header := serve(t, incoming)
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, header)
		assert.NotEqual(t, incoming, seen)
	}
}
