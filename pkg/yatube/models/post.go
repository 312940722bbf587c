package models

import "time"

const excerptLength = 15

// Post is a text entry written by an author, optionally filed under a group
// and illustrated with an image.
type Post struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"pub_date"`
	UpdatedAt time.Time `json:"updated_at"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	GroupID   *uint     `gorm:"index" json:"group_id"`
	Image     string    `json:"image,omitempty"` // path relative to the media root

	// Relationships
	Author User   `gorm:"foreignKey:AuthorID" json:"author"`
	Group  *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}

// Excerpt returns the first characters of the text, for listings and titles.
func (p Post) Excerpt() string {
	return excerpt(p.Text)
}

// Comment is a reader's reply to a post.
type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`

	// Relationships
	Author User `gorm:"foreignKey:AuthorID" json:"author"`
}

// Excerpt returns the first characters of the text.
func (c Comment) Excerpt() string {
	return excerpt(c.Text)
}

func excerpt(text string) string {
	r := []rune(text)
	if len(r) <= excerptLength {
		return text
	}
	return string(r[:excerptLength])
}
