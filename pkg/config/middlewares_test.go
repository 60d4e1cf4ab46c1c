package config

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newSlashServer() *echo.Echo {
	e := echo.New()
	SetupMiddleware(e)
	ok := func(c echo.Context) error { return c.String(http.StatusOK, c.FormValue("text")) }
	e.GET("/create/", ok)
	e.POST("/create/", ok)
	e.GET("/health", ok)
	return e
}

func TestTrailingSlashRedirects(t *testing.T) {
	e := newSlashServer()

	tests := []struct {
		name     string
		method   string
		target   string
		code     int
		location string
	}{
		{"get", http.MethodGet, "/create?x=1", http.StatusMovedPermanently, "/create/?x=1"},
		{"head", http.MethodHead, "/create", http.StatusMovedPermanently, "/create/"},
		{"post keeps method", http.MethodPost, "/create", http.StatusPermanentRedirect, "/create/"},
		{"health skipped", http.MethodGet, "/health", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestTrailingSlashLeavesCanonicalPostAlone(t *testing.T) {
	e := newSlashServer()
	form := url.Values{"text": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/create/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}
