package models

// GroupTitleMaxLength bounds Group.Title in runes.
const GroupTitleMaxLength = 200

// Group is a named community that posts may optionally belong to.
type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"size:200;not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (g *Group) String() string {
	return g.Title
}
