// Package feed assembles paginated post listings: the home feed, group and
// profile pages and the personal feed of followed authors.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
)

// ErrAuthRequired is returned for the followed feed without a viewer.
var ErrAuthRequired = errors.New("authentication required")

// Kind selects the post collection.
type Kind int

const (
	All Kind = iota
	ByGroup
	ByAuthor
	ByFollowed
)

// Filter names the collection to list. GroupSlug, Username and Viewer are
// read for ByGroup, ByAuthor and ByFollowed respectively.
type Filter struct {
	Kind      Kind
	GroupSlug string
	Username  string
	Viewer    *models.User
}

// Result is a resolved page plus the group or author it was filtered by.
type Result struct {
	Page   Page
	Group  *models.Group
	Author *models.User
}

// Service builds feeds from the store.
type Service struct {
	users  store.Users
	groups store.Groups
	posts  store.Posts
}

// NewService creates a feed service.
func NewService(users store.Users, groups store.Groups, posts store.Posts) *Service {
	return &Service{users: users, groups: groups, posts: posts}
}

// ListPosts returns the requested page of the filtered collection, newest first.
func (s *Service) ListPosts(ctx context.Context, f Filter, rawPage string) (*Result, error) {
	res := &Result{}
	var pf store.PostFilter

	switch f.Kind {
	case All:
		pf.Kind = store.FilterAll
	case ByGroup:
		group, err := s.groups.GroupBySlug(ctx, f.GroupSlug)
		if err != nil {
			return nil, err
		}
		res.Group = group
		pf = store.PostFilter{Kind: store.FilterGroup, GroupID: group.ID}
	case ByAuthor:
		author, err := s.users.UserByUsername(ctx, f.Username)
		if err != nil {
			return nil, err
		}
		res.Author = author
		pf = store.PostFilter{Kind: store.FilterAuthor, AuthorID: author.ID}
	case ByFollowed:
		if f.Viewer == nil {
			return nil, ErrAuthRequired
		}
		pf = store.PostFilter{Kind: store.FilterFollowed, FollowerID: f.Viewer.ID}
	default:
		return nil, fmt.Errorf("unknown feed kind %d", f.Kind)
	}

	total, err := s.posts.CountPosts(ctx, pf)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	page := PageFor(total, rawPage)
	if total > 0 {
		page.Posts, err = s.posts.ListPosts(ctx, pf, page.Offset(), PageSize)
		if err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
	}
	res.Page = page
	return res, nil
}
