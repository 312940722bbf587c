package posts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/forms"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
	"github.com/mikepea/yatube/pkg/yatube/web"
)

// Handler serves the post pages
type Handler struct {
	posts  *Service
	groups store.Groups
}

// NewHandler creates a new post handler
func NewHandler(posts *Service, groups store.Groups) *Handler {
	return &Handler{posts: posts, groups: groups}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		web.NotFound(c)
		return
	}
	slog.Error("posts: request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	web.ServerError(c)
}

func (h *Handler) renderForm(c *gin.Context, form forms.PostForm, errs forms.FieldErrors, post *models.Post) {
	groups, err := h.groups.ListGroups(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if errs == nil {
		errs = forms.FieldErrors{}
	}
	data := gin.H{
		"Form":   form,
		"Errors": errs,
		"Groups": groups,
		"IsEdit": post != nil,
	}
	if post != nil {
		data["PostID"] = post.ID
	}
	web.Render(c, http.StatusOK, "create_post.html", data)
}

func bindPostForm(c *gin.Context) forms.PostForm {
	var form forms.PostForm
	if err := forms.Bind(c, &form); err != nil {
		slog.Debug("posts: bind failed", "error", err)
	}
	if form.Image == nil {
		if fh, err := c.FormFile("image"); err == nil {
			form.Image = fh
		}
	}
	return form
}

// CreatePage renders the empty post form
func (h *Handler) CreatePage(c *gin.Context) {
	if auth.RequireAuthenticated(auth.CurrentUser(c)) != auth.Authorized {
		auth.RedirectToLogin(c)
		return
	}
	h.renderForm(c, forms.PostForm{}, nil, nil)
}

// Create publishes a post
func (h *Handler) Create(c *gin.Context) {
	user := auth.CurrentUser(c)
	if auth.RequireAuthenticated(user) != auth.Authorized {
		auth.RedirectToLogin(c)
		return
	}

	form := bindPostForm(c)
	out, err := h.posts.CreatePost(c.Request.Context(), user, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if out.Redirect != "" {
		c.Redirect(http.StatusFound, out.Redirect)
		return
	}
	h.renderForm(c, form, out.Errors, nil)
}

// Detail renders a post with its comments
func (h *Handler) Detail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		web.NotFound(c)
		return
	}

	detail, err := h.posts.Detail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	web.Render(c, http.StatusOK, "post_detail.html", gin.H{
		"Post":             detail.Post,
		"Comments":         detail.Comments,
		"AuthorPostsCount": detail.AuthorPostsCount,
		"CanEdit":          auth.RequireAuthor(auth.CurrentUser(c), detail.Post.AuthorID) == auth.Authorized,
		"Form":             forms.CommentForm{},
		"Errors":           forms.FieldErrors{},
	})
}

// EditPage renders the edit form for the post's author
func (h *Handler) EditPage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		web.NotFound(c)
		return
	}

	out, err := h.posts.PrepareEdit(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.redirected(c, out) {
		return
	}
	h.renderForm(c, forms.NewPostForm(out.Post), nil, out.Post)
}

// Edit saves changes to a post
func (h *Handler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		web.NotFound(c)
		return
	}

	form := bindPostForm(c)
	out, err := h.posts.EditPost(c.Request.Context(), auth.CurrentUser(c), id, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.redirected(c, out) {
		return
	}
	h.renderForm(c, form, out.Errors, out.Post)
}

// Comment adds a comment and returns to the post
func (h *Handler) Comment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		web.NotFound(c)
		return
	}

	var form forms.CommentForm
	if err := forms.Bind(c, &form); err != nil {
		slog.Debug("posts: comment bind failed", "error", err)
	}

	out, err := h.posts.AddComment(c.Request.Context(), auth.CurrentUser(c), id, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.redirected(c, out)
}

// redirected writes the response for outcomes that leave the page and
// reports whether it did.
func (h *Handler) redirected(c *gin.Context, out *Outcome) bool {
	switch {
	case out.Access == auth.Unauthenticated:
		auth.RedirectToLogin(c)
		return true
	case out.Redirect != "":
		if out.Access == auth.Forbidden {
			slog.Debug("posts: non-author edit redirected", "path", c.Request.URL.Path)
		}
		c.Redirect(http.StatusFound, out.Redirect)
		return true
	}
	return false
}

// RegisterRoutes registers post routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/create/", h.CreatePage)
	rg.POST("/create/", h.Create)
	rg.GET("/posts/:id/", h.Detail)
	rg.GET("/posts/:id/edit/", h.EditPage)
	rg.POST("/posts/:id/edit/", h.Edit)
	rg.POST("/posts/:id/comment/", h.Comment)
}
