package models

import "time"

const postStringLength = 15

// Post is a single authored text, optionally with an image and a group.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"<-:create;index"`
	Image     string    `json:"image,omitempty"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	Author    User      `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index"`
	Group     *Group    `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
}

// String returns the first characters of the text.
func (p *Post) String() string {
	return Truncate(p.Text, postStringLength)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// PostRequest is the submitted post form.
type PostRequest struct {
	Text  string `form:"text" validate:"required"`
	Group string `form:"group"`
}
