package models

import "time"

// Follow is a directed "UserID subscribes to AuthorID" edge.
// The pair is intentionally not unique: repeated follows create repeated edges.
type Follow struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`

	// Relationships
	User   User `gorm:"foreignKey:UserID" json:"-"`
	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}
