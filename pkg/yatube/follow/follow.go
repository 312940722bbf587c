// Package follow implements following and unfollowing authors.
package follow

import (
	"context"

	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/events"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
)

// FeedURL is where both workflows send the user afterwards.
const FeedURL = "/follow/"

// Outcome is the result of a follow workflow.
type Outcome struct {
	Access   auth.Access
	Redirect string
}

// Service runs the follow workflows.
type Service struct {
	users     store.Users
	follows   store.Follows
	publisher events.Publisher
}

// NewService creates a follow service.
func NewService(users store.Users, follows store.Follows, publisher events.Publisher) *Service {
	return &Service{users: users, follows: follows, publisher: publisher}
}

// Follow adds an edge from user to the named author. Repeated calls add
// repeated edges.
func (s *Service) Follow(ctx context.Context, user *models.User, username string) (*Outcome, error) {
	if access := auth.RequireAuthenticated(user); access != auth.Authorized {
		return &Outcome{Access: access}, nil
	}
	author, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.follows.CreateFollow(ctx, user.ID, author.ID); err != nil {
		return nil, err
	}
	events.Emit(ctx, s.publisher, events.Event{Type: events.Followed, ActorID: user.ID, AuthorID: author.ID})
	return &Outcome{Access: auth.Authorized, Redirect: FeedURL}, nil
}

// Unfollow removes every edge from user to the named author. Removing a
// missing edge is not an error.
func (s *Service) Unfollow(ctx context.Context, user *models.User, username string) (*Outcome, error) {
	if access := auth.RequireAuthenticated(user); access != auth.Authorized {
		return &Outcome{Access: access}, nil
	}
	author, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	removed, err := s.follows.DeleteFollow(ctx, user.ID, author.ID)
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		events.Emit(ctx, s.publisher, events.Event{Type: events.Unfollowed, ActorID: user.ID, AuthorID: author.ID})
	}
	return &Outcome{Access: auth.Authorized, Redirect: FeedURL}, nil
}
