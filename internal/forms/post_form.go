// Package forms binds and validates submitted post and comment forms.
package forms

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/yatube/internal/media"
	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/validators"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
)

const (
	msgInvalidForm   = "The submitted form could not be read."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// GroupFinder resolves the submitted group choice.
type GroupFinder interface {
	GetGroupByID(ctx context.Context, id uint) (*models.Group, error)
}

// PostForm holds submitted (or initial) post values and their errors.
type PostForm struct {
	Text   string
	Group  string
	Errors map[string]string

	groupID *uint
	image   *multipart.FileHeader
}

// NewPostForm returns a form prefilled from post, or an empty one for nil.
func NewPostForm(post *models.Post) *PostForm {
	f := &PostForm{}
	if post != nil {
		f.Text = post.Text
		if post.GroupID != nil {
			f.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
		}
	}
	return f
}

// BindPostForm reads text, group and image from the request and validates them.
func BindPostForm(c echo.Context, groups GroupFinder) *PostForm {
	f := &PostForm{}
	var req models.PostRequest
	if err := c.Bind(&req); err != nil {
		f.addError("", msgInvalidForm)
		return f
	}
	f.Text = strings.TrimSpace(req.Text)
	f.Group = strings.TrimSpace(req.Group)
	req.Text, req.Group = f.Text, f.Group

	for field, msg := range validators.FieldErrors(c.Validate(&req)) {
		f.addError(field, msg)
	}
	if f.Group != "" {
		f.resolveGroup(c.Request().Context(), groups)
	}
	f.bindImage(c)
	return f
}

// Valid reports whether binding produced no errors.
func (f *PostForm) Valid() bool {
	return len(f.Errors) == 0
}

// Apply copies the cleaned values onto post, storing a new image when one
// was uploaded. An edit without an upload keeps the existing image.
func (f *PostForm) Apply(ctx context.Context, post *models.Post, images media.Store) error {
	post.Text = f.Text
	post.GroupID = f.groupID
	post.Group = nil
	if f.image == nil {
		return nil
	}
	file, err := f.image.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()
	name, err := images.Save(ctx, f.image.Filename, file)
	if err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	post.Image = name
	return nil
}

func (f *PostForm) resolveGroup(ctx context.Context, groups GroupFinder) {
	id, err := strconv.ParseUint(f.Group, 10, 32)
	if err != nil {
		f.addError("group", msgInvalidChoice)
		return
	}
	group, err := groups.GetGroupByID(ctx, uint(id))
	if err != nil {
		f.addError("group", msgInvalidChoice)
		return
	}
	f.groupID = &group.ID
}

func (f *PostForm) bindImage(c echo.Context) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return
	}
	if err != nil {
		f.addError("image", msgInvalidImage)
		return
	}
	if header.Size == 0 {
		f.addError("image", "The submitted file is empty.")
		return
	}
	file, err := header.Open()
	if err != nil {
		f.addError("image", msgInvalidImage)
		return
	}
	defer file.Close()
	mtype, err := mimetype.DetectReader(file)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		f.addError("image", msgInvalidImage)
		return
	}
	f.image = header
}

func (f *PostForm) addError(field, msg string) {
	if f.Errors == nil {
		f.Errors = make(map[string]string)
	}
	if _, ok := f.Errors[field]; !ok {
		f.Errors[field] = msg
	}
}
