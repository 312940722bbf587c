// Package server assembles the HTTP router shared by the server binary and
// the integration tests.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/admin"
	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/cache"
	"github.com/mikepea/yatube/pkg/yatube/events"
	"github.com/mikepea/yatube/pkg/yatube/feed"
	"github.com/mikepea/yatube/pkg/yatube/follow"
	"github.com/mikepea/yatube/pkg/yatube/media"
	"github.com/mikepea/yatube/pkg/yatube/posts"
	"github.com/mikepea/yatube/pkg/yatube/store"
	"github.com/mikepea/yatube/pkg/yatube/web"
)

// DefaultCacheTTL is how long the home feed is served from cache.
const DefaultCacheTTL = 20 * time.Second

// Deps are the collaborators the router is built from.
type Deps struct {
	Store       *store.Store
	Pages       cache.Cache
	CacheTTL    time.Duration
	Media       *media.Storage
	Events      events.Publisher
	CORSOrigins []string
	// RequestLog enables gin's access log.
	RequestLog bool
}

// viewerPartition keeps cached pages apart per logged in user.
func viewerPartition(c *gin.Context) string {
	if user := auth.CurrentUser(c); user != nil {
		return strconv.FormatUint(uint64(user.ID), 10)
	}
	return "0"
}

// New builds the gin engine with every route registered.
func New(d Deps) *gin.Engine {
	if d.Pages == nil {
		d.Pages = cache.NopCache{}
	}
	if d.Events == nil {
		d.Events = events.NewLogPublisher(nil)
	}

	r := gin.New()
	if d.RequestLog {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
			ExposeHeaders:    []string{"Content-Length", "Content-Type", cache.HeaderCache},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	web.Load(r)
	r.Use(auth.SessionMiddleware(d.Store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "yatube"})
	})

	if d.Media != nil {
		r.Static(media.URLPrefix, d.Media.Root())
	}

	s := d.Store

	feedHandler := feed.NewHandler(feed.NewService(s, s, s), s)
	feedHandler.RegisterRoutes(&r.RouterGroup, cache.CachePage(d.Pages, d.CacheTTL, viewerPartition))

	var images posts.ImageSaver
	if d.Media != nil {
		images = d.Media
	}
	postsHandler := posts.NewHandler(posts.NewService(s, s, s, images, d.Events), s)
	postsHandler.RegisterRoutes(&r.RouterGroup)

	followHandler := follow.NewHandler(follow.NewService(s, s, d.Events))
	followHandler.RegisterRoutes(&r.RouterGroup)

	authHandler := auth.NewHandler(s)
	authHandler.RegisterRoutes(r.Group("/auth"))

	adminHandler := admin.NewHandler(s, d.Pages)
	adminHandler.RegisterRoutes(r.Group("/api/admin", auth.RequireAdmin()))

	r.NoRoute(web.NotFound)
	return r
}
