// Package events publishes activity events for posts, comments and follows.
//
// Publishing is synchronous and best effort: a failed publish is logged and never
// fails the request that triggered it.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Type names an activity.
type Type string

const (
	PostCreated  Type = "post_created"
	PostUpdated  Type = "post_updated"
	CommentAdded Type = "comment_added"
	Followed     Type = "follow"
	Unfollowed   Type = "unfollow"
)

// Event describes one activity. AuthorID is the author the activity concerns
// and is used as the partition key.
type Event struct {
	Type       Type      `json:"type"`
	ActorID    uint      `json:"actor_id"`
	AuthorID   uint      `json:"author_id"`
	PostID     uint      `json:"post_id,omitempty"`
	CommentID  uint      `json:"comment_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Emit publishes event, stamping the time if missing, and logs any failure.
func Emit(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, event); err != nil {
		slog.Error("events: publish failed", "type", event.Type, "actor_id", event.ActorID, "error", err)
	}
}

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher logs through logger, or slog.Default when nil.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "activity",
		"type", event.Type,
		"actor_id", event.ActorID,
		"author_id", event.AuthorID,
		"post_id", event.PostID,
		"comment_id", event.CommentID,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
