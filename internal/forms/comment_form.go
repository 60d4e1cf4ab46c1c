package forms

import (
	"strings"

	"github.com/anonto42/yatube/internal/models"
	"github.com/anonto42/yatube/validators"
	"github.com/labstack/echo/v4"
)

// CommentForm holds a submitted comment.
type CommentForm struct {
	Text   string
	Errors map[string]string
}

func BindCommentForm(c echo.Context) *CommentForm {
	f := &CommentForm{}
	var req models.CommentRequest
	if err := c.Bind(&req); err != nil {
		f.Errors = map[string]string{"": msgInvalidForm}
		return f
	}
	f.Text = strings.TrimSpace(req.Text)
	req.Text = f.Text
	f.Errors = validators.FieldErrors(c.Validate(&req))
	return f
}

func (f *CommentForm) Valid() bool {
	return len(f.Errors) == 0
}
