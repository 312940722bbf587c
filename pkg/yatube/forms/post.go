package forms

import (
	"context"
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
)

const (
	msgBadGroup = "select a valid group"
	msgBadImage = "upload a valid image"
)

// PostForm is the input for creating or editing a post.
type PostForm struct {
	Text  string                `form:"text" validate:"notblank" msg:"post cannot be without text"`
	Group string                `form:"group"`
	Image *multipart.FileHeader `form:"image" validate:"-"`
}

// PostData is a validated, not yet saved post.
type PostData struct {
	Text    string
	GroupID *uint
	Image   *multipart.FileHeader
}

// NewPostForm prefills the form from an existing post.
func NewPostForm(post *models.Post) PostForm {
	form := PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return form
}

// Validate checks the form against the stored groups.
func (f PostForm) Validate(ctx context.Context, groups store.Groups) (*PostData, FieldErrors, error) {
	errs := check(f)

	data := &PostData{Text: strings.TrimSpace(f.Text), Image: f.Image}

	if raw := strings.TrimSpace(f.Group); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			errs.Add("group", msgBadGroup)
		} else if _, err := groups.GroupByID(ctx, uint(id)); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return nil, nil, err
			}
			errs.Add("group", msgBadGroup)
		} else {
			groupID := uint(id)
			data.GroupID = &groupID
		}
	}

	if f.Image != nil {
		if ok, err := isImage(f.Image); err != nil || !ok {
			errs.Add("image", msgBadImage)
		}
	}

	if errs.Any() {
		return nil, errs, nil
	}
	return data, errs, nil
}

// CommentForm is the input for adding a comment.
type CommentForm struct {
	Text string `form:"text" validate:"notblank" msg:"comment cannot be without text"`
}

// Validate returns the trimmed comment text or field errors.
func (f CommentForm) Validate() (string, FieldErrors) {
	errs := check(f)
	if errs.Any() {
		return "", errs
	}
	return strings.TrimSpace(f.Text), errs
}

func isImage(fh *multipart.FileHeader) (bool, error) {
	file, err := fh.Open()
	if err != nil {
		return false, err
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(mtype.String(), "image/"), nil
}
