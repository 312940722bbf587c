package models

// Group is a topic posts can optionally be filed under.
// Groups are created out-of-band (admin API or CLI); the slug is their URL identity.
type Group struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;size:50;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}
