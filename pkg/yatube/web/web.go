// Package web holds the HTML templates and the rendering helpers shared by all page handlers.
package web

import (
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/media"
	"github.com/mikepea/yatube/pkg/yatube/models"
)

// ViewerKey is the gin context key holding the logged in *models.User.
const ViewerKey = "user"

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"mediaURL": media.URL,
	"date": func(t time.Time) string {
		return t.Format("2 January 2006")
	},
	"add": func(a, b int) int {
		return a + b
	},
	"lines": func(s string) []string {
		return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	},
}

// Templates parses every embedded page and partial.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// Load installs the templates on the engine.
func Load(r *gin.Engine) {
	r.SetHTMLTemplate(Templates())
}

// Viewer returns the logged in user stored on the context, if any.
func Viewer(c *gin.Context) *models.User {
	v, ok := c.Get(ViewerKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// Render executes the named page with data plus the current viewer.
func Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Viewer"] = Viewer(c)
	c.HTML(status, name, data)
}

// NotFound renders the custom 404 page.
func NotFound(c *gin.Context) {
	Render(c, http.StatusNotFound, "404.html", gin.H{"Path": c.Request.URL.Path})
}

// ServerError renders the generic 500 page.
func ServerError(c *gin.Context) {
	Render(c, http.StatusInternalServerError, "500.html", nil)
}
