package handlers

import (
	"github.com/anonto42/yatube/internal/forms"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/internal/pagination"
)

// Template names, relative to the embedded templates directory.
const (
	tmplIndex      = "posts/index.html"
	tmplGroupList  = "posts/group_list.html"
	tmplProfile    = "posts/profile.html"
	tmplPostDetail = "posts/post_detail.html"
	tmplCreatePost = "posts/create_post.html"
	tmplFollow     = "posts/follow.html"
	tmplLogin      = "users/login.html"
	tmplSignup     = "users/signup.html"
	tmplNotFound   = "core/404.html"
	tmplError      = "core/error.html"
)

// IndexPage is rendered by GET /.
type IndexPage struct {
	Title string
	Page  *pagination.Page[models.Post]
}

// GroupPage is rendered by GET /group/:slug/.
type GroupPage struct {
	Title string
	Text  string
	Group *models.Group
	Page  *pagination.Page[models.Post]
}

// ProfilePage is rendered by GET /profile/:username/.
type ProfilePage struct {
	Title      string
	Author     *models.User
	Page       *pagination.Page[models.Post]
	PostTotal  int64
	Following  bool
	ShowFollow bool
}

// PostDetailPage is rendered by GET /posts/:id/.
type PostDetailPage struct {
	Title      string
	Post       *models.Post
	Comments   []models.Comment
	CountPosts int64
	CanEdit    bool
	Form       *forms.CommentForm
}

// PostFormPage is shared by the create and edit pages.
type PostFormPage struct {
	Title  string
	Form   *forms.PostForm
	Groups []models.Group
	Post   *models.Post
	IsEdit bool
}

// FollowPage is rendered by GET /follow/.
type FollowPage struct {
	Title string
	Page  *pagination.Page[models.Post]
}

// LoginPage is rendered by GET|POST /auth/login/.
type LoginPage struct {
	Title  string
	Next   string
	Values map[string]string
	Errors map[string]string
}

// SignupPage is rendered by GET|POST /auth/signup/.
type SignupPage struct {
	Title  string
	Fields []string
	Values map[string]string
	Errors map[string]string
}

// NotFoundPage is rendered for any 404.
type NotFoundPage struct {
	Title string
	Path  string
}

// ErrorPage is rendered for every other error status.
type ErrorPage struct {
	Title   string
	Message string
}
