package feed

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/store"
	"github.com/mikepea/yatube/pkg/yatube/web"
)

// Handler serves the feed pages
type Handler struct {
	feed    *Service
	follows store.Follows
}

// NewHandler creates a new feed handler
func NewHandler(feed *Service, follows store.Follows) *Handler {
	return &Handler{feed: feed, follows: follows}
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		web.NotFound(c)
		return
	}
	slog.Error("feed: list failed", "path", c.Request.URL.Path, "error", err)
	web.ServerError(c)
}

// Index renders the home feed of all posts
func (h *Handler) Index(c *gin.Context) {
	res, err := h.feed.ListPosts(c.Request.Context(), Filter{Kind: All}, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	web.Render(c, http.StatusOK, "index.html", gin.H{"Page": res.Page})
}

// GroupPosts renders the posts of one group
func (h *Handler) GroupPosts(c *gin.Context) {
	res, err := h.feed.ListPosts(c.Request.Context(), Filter{Kind: ByGroup, GroupSlug: c.Param("slug")}, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	web.Render(c, http.StatusOK, "group_list.html", gin.H{
		"Group": res.Group,
		"Page":  res.Page,
	})
}

// Profile renders an author's posts with follow state for logged in viewers
func (h *Handler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := h.feed.ListPosts(ctx, Filter{Kind: ByAuthor, Username: c.Param("username")}, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}

	author := res.Author
	followers, err := h.follows.FollowerCount(ctx, author.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	following, err := h.follows.FollowingCount(ctx, author.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	data := gin.H{
		"Author":         author,
		"Page":           res.Page,
		"PostsCount":     res.Page.Total,
		"FollowersCount": followers,
		"FollowingCount": following,
		"ShowFollow":     false,
		"Following":      false,
	}

	viewer := auth.CurrentUser(c)
	if auth.RequireAuthenticated(viewer) == auth.Authorized && viewer.ID != author.ID {
		isFollowing, err := h.follows.IsFollowing(ctx, viewer.ID, author.ID)
		if err != nil {
			h.fail(c, err)
			return
		}
		data["ShowFollow"] = true
		data["Following"] = isFollowing
	}

	web.Render(c, http.StatusOK, "profile.html", data)
}

// FollowIndex renders posts of the authors the viewer follows
func (h *Handler) FollowIndex(c *gin.Context) {
	viewer := auth.CurrentUser(c)
	if auth.RequireAuthenticated(viewer) != auth.Authorized {
		auth.RedirectToLogin(c)
		return
	}

	res, err := h.feed.ListPosts(c.Request.Context(), Filter{Kind: ByFollowed, Viewer: viewer}, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	web.Render(c, http.StatusOK, "follow.html", gin.H{"Page": res.Page})
}

// RegisterRoutes registers feed routes. indexMiddleware runs in front of the home feed only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, indexMiddleware ...gin.HandlerFunc) {
	rg.GET("/", append(indexMiddleware, h.Index)...)
	rg.GET("/group/:slug/", h.GroupPosts)
	rg.GET("/profile/:username/", h.Profile)
	rg.GET("/follow/", h.FollowIndex)
}
