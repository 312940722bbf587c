package store

import (
	"context"
	"fmt"

	"github.com/mikepea/yatube/pkg/yatube/models"
	"gorm.io/gorm"
)

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if err := s.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *Store) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// UpdatePost writes the mutable fields of a post. Author and creation time never change.
func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	result := s.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Select("Text", "GroupID", "Image", "UpdatedAt").
		Omit("Author", "Group").
		Updates(post)
	if result.Error != nil {
		return fmt.Errorf("update post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes the post and its comments.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Post{})
	switch filter.Kind {
	case FilterGroup:
		q = q.Where("group_id = ?", filter.GroupID)
	case FilterAuthor:
		q = q.Where("author_id = ?", filter.AuthorID)
	case FilterFollowed:
		// IN keeps duplicate follow edges from repeating posts.
		followed := s.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", filter.FollowerID)
		q = q.Where("author_id IN (?)", followed)
	}
	return q
}

func (s *Store) CountPosts(ctx context.Context, filter PostFilter) (int64, error) {
	var count int64
	if err := s.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func (s *Store) ListPosts(ctx context.Context, filter PostFilter, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := s.filtered(ctx, filter).
		Preload("Author").Preload("Group").
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// SearchPosts matches the query against post text.
func (s *Store) SearchPosts(ctx context.Context, query string, limit int) ([]models.Post, error) {
	q := s.db.WithContext(ctx).Preload("Author").Preload("Group").Order("created_at DESC").Order("id DESC")
	if query != "" {
		q = q.Where("text LIKE ?", "%"+query+"%")
	}
	var posts []models.Post
	if err := q.Limit(limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}
