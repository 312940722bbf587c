// Package posts implements the post workflows: create, edit, comment and
// the post detail view.
//
// Every workflow checks access first and reports the outcome instead of
// writing a response, so the same rules serve pages and tests alike.
package posts

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strconv"

	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/events"
	"github.com/mikepea/yatube/pkg/yatube/forms"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
)

// ImageSaver persists an uploaded image and returns its stored path.
type ImageSaver interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(rel string) error
}

// Outcome is the result of a workflow. Redirect is set when the caller should
// move on; otherwise Errors explains why the form is shown again.
type Outcome struct {
	Access   auth.Access
	Redirect string
	Errors   forms.FieldErrors
	Post     *models.Post
	Comment  *models.Comment
}

// Detail is a post with its comments, newest first.
type Detail struct {
	Post             *models.Post
	Comments         []models.Comment
	AuthorPostsCount int64
}

// Service runs the post workflows.
type Service struct {
	posts     store.Posts
	groups    store.Groups
	comments  store.Comments
	images    ImageSaver
	publisher events.Publisher
}

// NewService creates a post service.
func NewService(posts store.Posts, groups store.Groups, comments store.Comments, images ImageSaver, publisher events.Publisher) *Service {
	return &Service{
		posts:     posts,
		groups:    groups,
		comments:  comments,
		images:    images,
		publisher: publisher,
	}
}

// DetailURL is the page of a single post.
func DetailURL(postID uint) string {
	return "/posts/" + strconv.FormatUint(uint64(postID), 10) + "/"
}

// ProfileURL is the page of an author.
func ProfileURL(username string) string {
	return "/profile/" + username + "/"
}

func (s *Service) saveImage(fh *multipart.FileHeader) (string, error) {
	if fh == nil || s.images == nil {
		return "", nil
	}
	rel, err := s.images.Save(fh)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return rel, nil
}

// discardImage removes an image saved for a write that did not persist.
func (s *Service) discardImage(rel string) {
	if rel == "" || s.images == nil {
		return
	}
	if err := s.images.Remove(rel); err != nil {
		slog.Warn("posts: orphaned image not removed", "image", rel, "error", err)
	}
}

// CreatePost publishes a new post by user.
func (s *Service) CreatePost(ctx context.Context, user *models.User, form forms.PostForm) (*Outcome, error) {
	if access := auth.RequireAuthenticated(user); access != auth.Authorized {
		return &Outcome{Access: access}, nil
	}

	data, errs, err := form.Validate(ctx, s.groups)
	if err != nil {
		return nil, err
	}
	if errs.Any() {
		return &Outcome{Access: auth.Authorized, Errors: errs}, nil
	}

	image, err := s.saveImage(data.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     data.Text,
		AuthorID: user.ID,
		GroupID:  data.GroupID,
		Image:    image,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.discardImage(image)
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:     events.PostCreated,
		ActorID:  user.ID,
		AuthorID: user.ID,
		PostID:   post.ID,
	})

	return &Outcome{
		Access:   auth.Authorized,
		Redirect: ProfileURL(user.Username),
		Post:     post,
	}, nil
}

// PrepareEdit loads a post for its edit form. Non-authors are sent to the
// post detail page.
func (s *Service) PrepareEdit(ctx context.Context, user *models.User, postID uint) (*Outcome, error) {
	if access := auth.RequireAuthenticated(user); access != auth.Authorized {
		return &Outcome{Access: access}, nil
	}
	post, err := s.posts.PostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if access := auth.RequireAuthor(user, post.AuthorID); access != auth.Authorized {
		return &Outcome{Access: access, Redirect: DetailURL(post.ID), Post: post}, nil
	}
	return &Outcome{Access: auth.Authorized, Post: post}, nil
}

// EditPost updates a post. Only its author may do so; anyone else is
// silently redirected to the post and nothing changes.
func (s *Service) EditPost(ctx context.Context, user *models.User, postID uint, form forms.PostForm) (*Outcome, error) {
	out, err := s.PrepareEdit(ctx, user, postID)
	if err != nil || out.Access != auth.Authorized {
		return out, err
	}
	post := out.Post

	data, errs, err := form.Validate(ctx, s.groups)
	if err != nil {
		return nil, err
	}
	if errs.Any() {
		return &Outcome{Access: auth.Authorized, Errors: errs, Post: post}, nil
	}

	image, err := s.saveImage(data.Image)
	if err != nil {
		return nil, err
	}

	post.Text = data.Text
	post.GroupID = data.GroupID
	if image != "" {
		post.Image = image
	}
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		s.discardImage(image)
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:     events.PostUpdated,
		ActorID:  user.ID,
		AuthorID: post.AuthorID,
		PostID:   post.ID,
	})

	return &Outcome{
		Access:   auth.Authorized,
		Redirect: DetailURL(post.ID),
		Post:     post,
	}, nil
}

// AddComment attaches a comment by user to a post. The caller always returns
// to the post; an invalid comment is simply not saved.
func (s *Service) AddComment(ctx context.Context, user *models.User, postID uint, form forms.CommentForm) (*Outcome, error) {
	if access := auth.RequireAuthenticated(user); access != auth.Authorized {
		return &Outcome{Access: access}, nil
	}

	post, err := s.posts.PostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Access: auth.Authorized, Redirect: DetailURL(post.ID), Post: post}

	text, errs := form.Validate()
	if errs.Any() {
		out.Errors = errs
		return out, nil
	}

	comment := &models.Comment{PostID: post.ID, AuthorID: user.ID, Text: text}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	out.Comment = comment

	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.CommentAdded,
		ActorID:   user.ID,
		AuthorID:  post.AuthorID,
		PostID:    post.ID,
		CommentID: comment.ID,
	})
	return out, nil
}

// Detail loads a post, its comments and the author's post count.
func (s *Service) Detail(ctx context.Context, postID uint) (*Detail, error) {
	post, err := s.posts.PostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.CommentsForPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.CountPosts(ctx, store.PostFilter{Kind: store.FilterAuthor, AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &Detail{Post: post, Comments: comments, AuthorPostsCount: count}, nil
}
