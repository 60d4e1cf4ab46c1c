package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/pagination"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// FollowHandler handles subscriptions and the subscription feed.
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	postRepository   repositories.PostRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, postRepo repositories.PostRepository) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		postRepository:   postRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group, loginRequired echo.MiddlewareFunc) {
	g.GET("/follow/", h.FollowIndex, loginRequired)
	g.POST("/profile/:username/follow/", h.ProfileFollow, loginRequired)
	g.POST("/profile/:username/unfollow/", h.ProfileUnfollow, loginRequired)
}

// FollowIndex lists posts by the authors the current user follows.
func (h *FollowHandler) FollowIndex(c echo.Context) error {
	user := middleware.CurrentUser(c)
	page, err := pagination.Posts(c, h.postRepository, repositories.PostFilter{FollowerID: user.ID})
	if err != nil {
		return storeError(err)
	}
	return c.Render(http.StatusOK, tmplFollow, FollowPage{
		Title: "Following",
		Page:  page,
	})
}

// ProfileFollow subscribes the current user to the author. Following
// yourself or someone already followed changes nothing.
func (h *FollowHandler) ProfileFollow(c echo.Context) error {
	ctx := c.Request().Context()
	author, err := h.userRepository.GetUserByUsername(ctx, usernameParam(c))
	if err != nil {
		return storeError(err)
	}
	user := middleware.CurrentUser(c)
	if user.ID != author.ID {
		err = h.followRepository.CreateFollow(ctx, &models.Follow{UserID: user.ID, AuthorID: author.ID})
		if err != nil && !errors.Is(err, repositories.ErrDuplicate) {
			return storeError(err)
		}
		if err == nil {
			log.WithFields(log.Fields{"user": user.Username, "author": author.Username}).Info("followed")
		}
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}

// ProfileUnfollow removes the subscription if there is one.
func (h *FollowHandler) ProfileUnfollow(c echo.Context) error {
	ctx := c.Request().Context()
	author, err := h.userRepository.GetUserByUsername(ctx, usernameParam(c))
	if err != nil {
		return storeError(err)
	}
	user := middleware.CurrentUser(c)
	err = h.followRepository.DeleteFollow(ctx, user.ID, author.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return storeError(err)
	}
	return c.Redirect(http.StatusFound, profileURL(author.Username))
}
