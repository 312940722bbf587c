package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/forms"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
	"github.com/mikepea/yatube/pkg/yatube/web"
)

const (
	msgBadCredentials = "please enter a correct username and password"
	msgUsernameTaken  = "a user with that username already exists"
)

// Handler handles authentication requests
type Handler struct {
	users store.Users
}

// NewHandler creates a new auth handler
func NewHandler(users store.Users) *Handler {
	return &Handler{users: users}
}

// TokenRequest represents the API token request body
type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the token response
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	SystemRole string `json:"system_role"`
}

func newUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Name:       user.DisplayName(),
		SystemRole: string(user.SystemRole),
	}
}

// SignupPage renders the empty signup form
func (h *Handler) SignupPage(c *gin.Context) {
	web.Render(c, http.StatusOK, "signup.html", gin.H{
		"Form":   forms.SignupForm{},
		"Errors": forms.FieldErrors{},
	})
}

// Signup creates an account and logs the new user in
func (h *Handler) Signup(c *gin.Context) {
	var form forms.SignupForm
	if err := forms.Bind(c, &form); err != nil {
		slog.Debug("auth: signup bind failed", "error", err)
	}

	errs := form.Validate()
	if !errs.Any() {
		user, err := h.createUser(c, &form)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			errs.Add("username", msgUsernameTaken)
		case err != nil:
			slog.Error("auth: signup failed", "error", err)
			web.ServerError(c)
			return
		default:
			if err := startSession(c, user); err != nil {
				slog.Error("auth: session token failed", "error", err)
				web.ServerError(c)
				return
			}
			slog.Info("auth: user signed up", "user_id", user.ID, "username", user.Username)
			c.Redirect(http.StatusFound, "/")
			return
		}
	}

	form.Password, form.Password2 = "", ""
	web.Render(c, http.StatusOK, "signup.html", gin.H{
		"Form":   form,
		"Errors": errs,
	})
}

func (h *Handler) createUser(c *gin.Context, form *forms.SignupForm) (*models.User, error) {
	hash, err := HashPassword(form.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     form.Username,
		Email:        form.Email,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		PasswordHash: hash,
		SystemRole:   models.SystemRoleUser,
	}
	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginPage renders the login form, keeping the next parameter
func (h *Handler) LoginPage(c *gin.Context) {
	web.Render(c, http.StatusOK, "login.html", gin.H{
		"Form":   forms.LoginForm{Next: c.Query("next")},
		"Errors": forms.FieldErrors{},
	})
}

// Login checks credentials and starts a session
func (h *Handler) Login(c *gin.Context) {
	var form forms.LoginForm
	if err := forms.Bind(c, &form); err != nil {
		slog.Debug("auth: login bind failed", "error", err)
	}
	if form.Next == "" {
		form.Next = c.Query("next")
	}

	errs := form.Validate()
	if !errs.Any() {
		user, err := h.authenticate(c, form.Username, form.Password)
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			errs.Add("__all__", msgBadCredentials)
		case err != nil:
			slog.Error("auth: login failed", "error", err)
			web.ServerError(c)
			return
		default:
			if err := startSession(c, user); err != nil {
				slog.Error("auth: session token failed", "error", err)
				web.ServerError(c)
				return
			}
			c.Redirect(http.StatusFound, SafeNext(form.Next, "/"))
			return
		}
	}

	form.Password = ""
	web.Render(c, http.StatusOK, "login.html", gin.H{
		"Form":   form,
		"Errors": errs,
	})
}

// ErrInvalidCredentials is returned for an unknown username or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

func (h *Handler) authenticate(c *gin.Context, username, password string) (*models.User, error) {
	user, err := h.users.UserByUsername(c.Request.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Logout clears the session cookie
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.Set(ContextKeyUser, (*models.User)(nil))
	c.Set(ContextKeySystemRole, "")
	web.Render(c, http.StatusOK, "logged_out.html", nil)
}

// Token issues a bearer token for API clients
func (h *Handler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authenticate(c, req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	token, err := GenerateToken(user.ID, user.Username, string(user.SystemRole))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: newUserResponse(user)})
}

// Me returns the current authenticated user
func (h *Handler) Me(c *gin.Context) {
	user := CurrentUser(c)
	if RequireAuthenticated(user) != Authorized {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// startSession issues a token and stores it in the session cookie.
func startSession(c *gin.Context, user *models.User) error {
	token, err := GenerateToken(user.ID, user.Username, string(user.SystemRole))
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(TokenDuration().Seconds()), "/", "", false, true)
	return nil
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/signup/", h.SignupPage)
	rg.POST("/signup/", h.Signup)
	rg.GET("/login/", h.LoginPage)
	rg.POST("/login/", h.Login)
	rg.GET("/logout/", h.Logout)
	rg.POST("/logout/", h.Logout)
	rg.POST("/token", h.Token)
	rg.GET("/me", h.Me)
}
