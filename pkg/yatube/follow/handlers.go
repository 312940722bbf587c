package follow

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
	"github.com/mikepea/yatube/pkg/yatube/web"
)

// Handler serves the follow and unfollow links
type Handler struct {
	follows *Service
}

// NewHandler creates a new follow handler
func NewHandler(follows *Service) *Handler {
	return &Handler{follows: follows}
}

type workflow func(ctx context.Context, user *models.User, username string) (*Outcome, error)

func (h *Handler) run(c *gin.Context, fn workflow) {
	out, err := fn(c.Request.Context(), auth.CurrentUser(c), c.Param("username"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		web.NotFound(c)
	case err != nil:
		slog.Error("follow: request failed", "path", c.Request.URL.Path, "error", err)
		web.ServerError(c)
	case out.Access != auth.Authorized:
		auth.RedirectToLogin(c)
	default:
		c.Redirect(http.StatusFound, out.Redirect)
	}
}

// Follow subscribes the viewer to an author
func (h *Handler) Follow(c *gin.Context) {
	h.run(c, h.follows.Follow)
}

// Unfollow unsubscribes the viewer from an author
func (h *Handler) Unfollow(c *gin.Context) {
	h.run(c, h.follows.Unfollow)
}

// RegisterRoutes registers follow routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile/:username/follow/", h.Follow)
	rg.GET("/profile/:username/unfollow/", h.Unfollow)
}
