package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/anonto42/yatube/internal/media"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
)

// MediaHandler serves stored post images.
type MediaHandler struct {
	images media.Store
}

func NewMediaHandler(images media.Store) *MediaHandler {
	return &MediaHandler{images: images}
}

// RegisterMediaRoutes registers media-related routes
func (h *MediaHandler) RegisterMediaRoutes(g *echo.Group) {
	g.GET("/media/*", h.Serve)
}

// Serve writes the stored file, sniffing its content type.
func (h *MediaHandler) Serve(c echo.Context) error {
	rc, err := h.images.Open(c.Request().Context(), c.Param("*"))
	if errors.Is(err, media.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Blob(http.StatusOK, mimetype.Detect(body).String(), body)
}
