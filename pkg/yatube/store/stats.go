package store

import (
	"context"
	"fmt"

	"github.com/mikepea/yatube/pkg/yatube/models"
)

// Stats are site-wide totals.
type Stats struct {
	TotalUsers    int64 `json:"total_users"`
	AdminUsers    int64 `json:"admin_users"`
	TotalPosts    int64 `json:"total_posts"`
	PostsInGroups int64 `json:"posts_in_groups"`
	PostsWithImg  int64 `json:"posts_with_image"`
	TotalGroups   int64 `json:"total_groups"`
	TotalComments int64 `json:"total_comments"`
	TotalFollows  int64 `json:"total_follows"`
}

// Stats counts every entity.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)

	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&st.TotalUsers, &models.User{}, "", nil},
		{&st.AdminUsers, &models.User{}, "system_role = ?", []any{models.SystemRoleAdmin}},
		{&st.TotalPosts, &models.Post{}, "", nil},
		{&st.PostsInGroups, &models.Post{}, "group_id IS NOT NULL", nil},
		{&st.PostsWithImg, &models.Post{}, "image <> ''", nil},
		{&st.TotalGroups, &models.Group{}, "", nil},
		{&st.TotalComments, &models.Comment{}, "", nil},
		{&st.TotalFollows, &models.Follow{}, "", nil},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}
	return &st, nil
}
