package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// ErrorHandler renders HTTP errors as site pages, or as JSON for API clients.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = http.StatusText(code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
	}
	if code >= http.StatusInternalServerError {
		log.WithError(err).WithField("uri", c.Request().RequestURI).Error("request failed")
	}

	var renderErr error
	switch {
	case c.Request().Method == http.MethodHead:
		renderErr = c.NoContent(code)
	case wantsJSON(c.Request()):
		renderErr = c.JSON(code, echo.Map{"message": message})
	case code == http.StatusNotFound:
		renderErr = c.Render(code, tmplNotFound, NotFoundPage{
			Title: "Page not found",
			Path:  c.Request().URL.Path,
		})
	default:
		renderErr = c.Render(code, tmplError, ErrorPage{
			Title:   http.StatusText(code),
			Message: message,
		})
	}
	if renderErr != nil {
		log.WithError(renderErr).Error("failed to render error page")
		if !c.Response().Committed {
			_ = c.String(code, message)
		}
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) ||
		strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// storeError maps a repository failure to the response status.
func storeError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
}

// idParam parses a numeric path parameter; anything else does not match a page.
func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound)
	}
	return uint(id), nil
}

// usernameParam returns the decoded :username path parameter.
func usernameParam(c echo.Context) string {
	raw := c.Param("username")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
