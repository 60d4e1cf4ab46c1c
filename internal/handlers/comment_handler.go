package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/internal/forms"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// CommentHandler handles comment submissions.
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, loginRequired echo.MiddlewareFunc) {
	g.POST("/posts/:id/comment/", h.AddComment, loginRequired)
}

// AddComment stores a comment by the current user. Every outcome other than
// a missing post redirects back to the post.
func (h *CommentHandler) AddComment(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return storeError(err)
	}

	form := forms.BindCommentForm(c)
	if !form.Valid() {
		log.WithField("post_id", post.ID).Debug("discarding invalid comment")
		return c.Redirect(http.StatusFound, postURL(post.ID))
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: middleware.CurrentUser(c).ID,
		Text:     form.Text,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return storeError(err)
	}
	return c.Redirect(http.StatusFound, postURL(post.ID))
}
