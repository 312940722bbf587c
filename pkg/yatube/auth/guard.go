package auth

import (
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/models"
)

// LoginPath is the login page unauthenticated visitors are sent to.
const LoginPath = "/auth/login/"

// Access is the outcome of an authorization check.
type Access int

const (
	Authorized Access = iota
	Unauthenticated
	Forbidden
)

func (a Access) String() string {
	switch a {
	case Authorized:
		return "authorized"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// RequireAuthenticated checks that a user is logged in.
func RequireAuthenticated(user *models.User) Access {
	if user == nil || user.ID == 0 {
		return Unauthenticated
	}
	return Authorized
}

// RequireAuthor checks that the logged in user is the given author.
func RequireAuthor(user *models.User, authorID uint) Access {
	if access := RequireAuthenticated(user); access != Authorized {
		return access
	}
	if user.ID != authorID {
		return Forbidden
	}
	return Authorized
}

// LoginURL builds the login URL that returns to next afterwards.
// Slashes in next stay readable: /auth/login/?next=/create/
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// RedirectToLogin sends the visitor to the login page with the current URL as next.
func RedirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
	c.Abort()
}

// SafeNext returns next when it is a local path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	// Browsers drop tab and newline from URLs, so "/\t/host" would become "//host".
	if strings.ContainsFunc(next, unicode.IsControl) {
		return fallback
	}
	if u, err := url.Parse(next); err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
