package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/internal/forms"
	"github.com/anonto42/yatube/internal/media"
	"github.com/anonto42/yatube/internal/middleware"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/pagination"
	"github.com/anonto42/yatube/internal/repositories"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// PostHandler serves the post listings, the detail page and the post form.
type PostHandler struct {
	postRepository    repositories.PostRepository
	groupRepository   repositories.GroupRepository
	userRepository    repositories.UserRepository
	commentRepository repositories.CommentRepository
	followRepository  repositories.FollowRepository
	images            media.Store
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	groupRepo repositories.GroupRepository,
	userRepo repositories.UserRepository,
	commentRepo repositories.CommentRepository,
	followRepo repositories.FollowRepository,
	images media.Store,
) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		groupRepository:   groupRepo,
		userRepository:    userRepo,
		commentRepository: commentRepo,
		followRepository:  followRepo,
		images:            images,
	}
}

// RegisterPostRoutes registers the listing, detail and form routes. The
// index middleware (the page cache) wraps only GET /.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, loginRequired echo.MiddlewareFunc, index ...echo.MiddlewareFunc) {
	g.GET("/", h.Index, index...)
	g.GET("/group/:slug/", h.GroupPosts)
	g.GET("/profile/:username/", h.Profile)
	g.GET("/posts/:id/", h.PostDetail)
	g.GET("/create/", h.CreateForm, loginRequired)
	g.POST("/create/", h.CreatePost, loginRequired)
	g.GET("/posts/:id/edit/", h.EditForm, loginRequired)
	g.POST("/posts/:id/edit/", h.EditPost, loginRequired)
}

// Index lists every post, newest first.
func (h *PostHandler) Index(c echo.Context) error {
	page, err := pagination.Posts(c, h.postRepository, repositories.PostFilter{})
	if err != nil {
		return storeError(err)
	}
	return c.Render(http.StatusOK, tmplIndex, IndexPage{
		Title: "Latest updates",
		Page:  page,
	})
}

// GroupPosts lists the posts of one group.
func (h *PostHandler) GroupPosts(c echo.Context) error {
	group, err := h.groupRepository.GetGroupBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return storeError(err)
	}
	page, err := pagination.Posts(c, h.postRepository, repositories.PostFilter{GroupID: group.ID})
	if err != nil {
		return storeError(err)
	}
	return c.Render(http.StatusOK, tmplGroupList, GroupPage{
		Title: group.Title,
		Text:  group.Description,
		Group: group,
		Page:  page,
	})
}

// Profile lists the posts of one author together with the follow state.
func (h *PostHandler) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	author, err := h.userRepository.GetUserByUsername(ctx, usernameParam(c))
	if err != nil {
		return storeError(err)
	}
	page, err := pagination.Posts(c, h.postRepository, repositories.PostFilter{AuthorID: author.ID})
	if err != nil {
		return storeError(err)
	}

	data := ProfilePage{
		Title:     "Profile of " + author.DisplayName(),
		Author:    author,
		Page:      page,
		PostTotal: page.Count,
	}
	if user := middleware.CurrentUser(c); user != nil && user.ID != author.ID {
		data.ShowFollow = true
		data.Following, err = h.followRepository.IsFollowing(ctx, user.ID, author.ID)
		if err != nil {
			return storeError(err)
		}
	}
	return c.Render(http.StatusOK, tmplProfile, data)
}

// PostDetail shows one post, its comments and the comment form.
func (h *PostHandler) PostDetail(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return storeError(err)
	}
	countPosts, err := h.postRepository.CountPosts(ctx, repositories.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return storeError(err)
	}
	comments, err := h.commentRepository.GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return storeError(err)
	}

	user := middleware.CurrentUser(c)
	return c.Render(http.StatusOK, tmplPostDetail, PostDetailPage{
		Title:      "Post " + models.Truncate(post.Text, 30),
		Post:       post,
		Comments:   comments,
		CountPosts: countPosts,
		CanEdit:    user != nil && user.ID == post.AuthorID,
		Form:       &forms.CommentForm{},
	})
}

// CreateForm shows an empty post form.
func (h *PostHandler) CreateForm(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, forms.NewPostForm(nil), nil)
}

// CreatePost saves a new post by the current user and redirects to their profile.
func (h *PostHandler) CreatePost(c echo.Context) error {
	user := middleware.CurrentUser(c)
	form := forms.BindPostForm(c, h.groupRepository)
	if !form.Valid() {
		return h.renderForm(c, http.StatusOK, form, nil)
	}

	ctx := c.Request().Context()
	post := &models.Post{AuthorID: user.ID}
	if err := form.Apply(ctx, post, h.images); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return storeError(err)
	}
	log.WithFields(log.Fields{"post_id": post.ID, "author": user.Username}).Info("post created")
	return c.Redirect(http.StatusFound, profileURL(user.Username))
}

// EditForm shows the post form prefilled for its author. Anyone else is
// sent to their own profile.
func (h *PostHandler) EditForm(c echo.Context) error {
	post, redirect, err := h.editablePost(c)
	if post == nil {
		return redirectOr(c, redirect, err)
	}
	return h.renderForm(c, http.StatusOK, forms.NewPostForm(post), post)
}

// EditPost saves the author's changes and redirects to the post.
func (h *PostHandler) EditPost(c echo.Context) error {
	post, redirect, err := h.editablePost(c)
	if post == nil {
		return redirectOr(c, redirect, err)
	}

	form := forms.BindPostForm(c, h.groupRepository)
	if !form.Valid() {
		return h.renderForm(c, http.StatusOK, form, post)
	}
	ctx := c.Request().Context()
	if err := form.Apply(ctx, post, h.images); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		return storeError(err)
	}
	return c.Redirect(http.StatusFound, postURL(post.ID))
}

// editablePost loads the post named in the path. It returns a nil post with
// a redirect target when the current user is not its author.
func (h *PostHandler) editablePost(c echo.Context) (*models.Post, string, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, "", err
	}
	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return nil, "", storeError(err)
	}
	user := middleware.CurrentUser(c)
	if post.AuthorID != user.ID {
		return nil, profileURL(user.Username), nil
	}
	return post, "", nil
}

func redirectOr(c echo.Context, target string, err error) error {
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, target)
}

func (h *PostHandler) renderForm(c echo.Context, status int, form *forms.PostForm, post *models.Post) error {
	groups, err := h.groupRepository.GetGroups(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	title := "New post"
	if post != nil {
		title = "Edit post"
	}
	return c.Render(status, tmplCreatePost, PostFormPage{
		Title:  title,
		Form:   form,
		Groups: groups,
		Post:   post,
		IsEdit: post != nil,
	})
}
