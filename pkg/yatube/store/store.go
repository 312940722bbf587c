// Package store is the persistence layer behind the blogging workflows.
//
// Foreign-key rules are enforced here rather than by the schema:
// deleting a user removes their posts, their comments, comments on their posts
// and every follow edge touching them; deleting a post removes its comments;
// deleting a group detaches its posts instead of deleting them.
package store

import (
	"context"
	"errors"

	"github.com/mikepea/yatube/pkg/yatube/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// FilterKind selects which post collection a feed is built from.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterGroup
	FilterAuthor
	FilterFollowed
)

// PostFilter narrows a post listing. Only the ID matching Kind is consulted.
type PostFilter struct {
	Kind       FilterKind
	GroupID    uint
	AuthorID   uint
	FollowerID uint
}

// Users manages user identities.
type Users interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, search string) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error
}

// Groups manages post groups.
type Groups interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GroupByID(ctx context.Context, id uint) (*models.Group, error)
	GroupBySlug(ctx context.Context, slug string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	DeleteGroup(ctx context.Context, id uint) error
}

// Posts manages posts. Listings are always newest first.
type Posts interface {
	CreatePost(ctx context.Context, post *models.Post) error
	PostByID(ctx context.Context, id uint) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
	CountPosts(ctx context.Context, filter PostFilter) (int64, error)
	ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error)
	SearchPosts(ctx context.Context, query string, limit int) ([]models.Post, error)
}

// Comments manages comments on posts.
type Comments interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	CommentsForPost(ctx context.Context, postID uint) ([]models.Comment, error)
}

// Follows manages follow edges.
type Follows interface {
	CreateFollow(ctx context.Context, userID, authorID uint) error
	DeleteFollow(ctx context.Context, userID, authorID uint) (int64, error)
	IsFollowing(ctx context.Context, userID, authorID uint) (bool, error)
	FollowerCount(ctx context.Context, authorID uint) (int64, error)
	FollowingCount(ctx context.Context, userID uint) (int64, error)
}

// Store implements every repository interface on top of gorm.
type Store struct {
	db *gorm.DB
}

// New creates a gorm-backed store.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
