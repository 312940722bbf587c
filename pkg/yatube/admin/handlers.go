// Package admin is the staff-only JSON API for managing groups, posts and users.
package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/cache"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
)

const searchLimit = 50

// Handler handles admin requests
type Handler struct {
	store *store.Store
	pages cache.Cache
}

// NewHandler creates a new admin handler. pages is the page cache cleared by /cache/clear.
func NewHandler(s *store.Store, pages cache.Cache) *Handler {
	if pages == nil {
		pages = cache.NopCache{}
	}
	return &Handler{store: s, pages: pages}
}

// UserResponse represents user data in admin responses
type UserResponse struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	SystemRole     string `json:"system_role"`
	CreatedAt      string `json:"created_at"`
	PostCount      int64  `json:"post_count"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
}

// UpdateUserRequest represents the request to update a user
type UpdateUserRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Email      *string `json:"email" binding:"omitempty,email"`
	SystemRole *string `json:"system_role"`
}

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Slug        string `json:"slug" binding:"required,max=50"`
	Description string `json:"description"`
}

// PostResponse is a post row in the admin listing
type PostResponse struct {
	ID        uint   `json:"id"`
	Excerpt   string `json:"excerpt"`
	Author    string `json:"author"`
	Group     string `json:"group,omitempty"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"pub_date"`
}

func (h *Handler) userResponse(c *gin.Context, user *models.User) (UserResponse, error) {
	ctx := c.Request.Context()
	resp := UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Name:       user.DisplayName(),
		SystemRole: string(user.SystemRole),
		CreatedAt:  user.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	var err error
	if resp.PostCount, err = h.store.CountPosts(ctx, store.PostFilter{Kind: store.FilterAuthor, AuthorID: user.ID}); err != nil {
		return resp, fmt.Errorf("count posts: %w", err)
	}
	if resp.FollowerCount, err = h.store.FollowerCount(ctx, user.ID); err != nil {
		return resp, fmt.Errorf("count followers: %w", err)
	}
	if resp.FollowingCount, err = h.store.FollowingCount(ctx, user.ID); err != nil {
		return resp, fmt.Errorf("count following: %w", err)
	}
	return resp, nil
}

// writeUser responds with the user and its counts, or 500 when they cannot be read.
func (h *Handler) writeUser(c *gin.Context, user *models.User) {
	resp, err := h.userResponse(c, user)
	if err != nil {
		slog.Error("admin: user counts failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

// GetStats returns site-wide statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers returns all users, optionally filtered by ?q=
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	responses := make([]UserResponse, len(users))
	for i := range users {
		resp, err := h.userResponse(c, &users[i])
		if err != nil {
			slog.Error("admin: user counts failed", "user_id", users[i].ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
			return
		}
		responses[i] = resp
	}
	c.JSON(http.StatusOK, responses)
}

// GetUser returns a single user by ID
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.store.UserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	h.writeUser(c, user)
}

// UpdateUser updates a user's profile and role
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.store.UserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Prevent admin from demoting themselves
	currentUserID, _ := auth.GetUserID(c)
	if id == currentUserID && req.SystemRole != nil && *req.SystemRole != string(models.SystemRoleAdmin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot demote yourself"})
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.SystemRole != nil {
		role := models.SystemRole(*req.SystemRole)
		if role != models.SystemRoleAdmin && role != models.SystemRoleUser {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid system role"})
			return
		}
		user.SystemRole = role
	}

	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	h.writeUser(c, user)
}

// DeleteUser deletes a user with their posts, comments and follows
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	// Prevent admin from deleting themselves
	currentUserID, _ := auth.GetUserID(c)
	if id == currentUserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete yourself"})
		return
	}

	err := h.store.DeleteUser(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		slog.Error("admin: delete user failed", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	slog.Info("admin: user deleted", "user_id", id)
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ListGroups returns every group
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.store.ListGroups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// CreateGroup creates a group
func (h *Handler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group := &models.Group{
		Title:       strings.TrimSpace(req.Title),
		Slug:        strings.TrimSpace(req.Slug),
		Description: req.Description,
	}
	err := h.store.CreateGroup(c.Request.Context(), group)
	if errors.Is(err, store.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"error": "Slug already in use"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}
	c.JSON(http.StatusCreated, group)
}

// DeleteGroup deletes a group; its posts stay without a group
func (h *Handler) DeleteGroup(c *gin.Context) {
	ctx := c.Request.Context()
	group, err := h.store.GroupBySlug(ctx, c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	if err := h.store.DeleteGroup(ctx, group.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}

// ListPosts searches post text with ?q=
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.store.SearchPosts(c.Request.Context(), c.Query("q"), searchLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	responses := make([]PostResponse, len(posts))
	for i, p := range posts {
		responses[i] = PostResponse{
			ID:        p.ID,
			Excerpt:   p.Excerpt(),
			Author:    p.Author.Username,
			Image:     p.Image,
			CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if p.Group != nil {
			responses[i].Group = p.Group.Slug
		}
	}
	c.JSON(http.StatusOK, responses)
}

// DeletePost deletes a post and its comments
func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.store.DeletePost(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// ClearCache empties the page cache
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.pages.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}

// RegisterRoutes registers admin routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.GetStats)
	rg.GET("/users", h.ListUsers)
	rg.GET("/users/:id", h.GetUser)
	rg.PUT("/users/:id", h.UpdateUser)
	rg.DELETE("/users/:id", h.DeleteUser)
	rg.GET("/groups", h.ListGroups)
	rg.POST("/groups", h.CreateGroup)
	rg.DELETE("/groups/:slug", h.DeleteGroup)
	rg.GET("/posts", h.ListPosts)
	rg.DELETE("/posts/:id", h.DeletePost)
	rg.POST("/cache/clear", h.ClearCache)
}
