package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/cache"
	"github.com/mikepea/yatube/pkg/yatube/media"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T, deps Deps) (*gin.Engine, *store.Store) {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	deps.Store = store.New(db)
	return New(deps), deps.Store
}

func get(r *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHealth(t *testing.T) {
	r, _ := setupTestServer(t, Deps{})

	resp := get(r, "/health", nil)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.Code)
	}
}

func TestCustomNotFound(t *testing.T) {
	r, _ := setupTestServer(t, Deps{})

	resp := get(r, "/does/not/exist/", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Page not found") {
		t.Error("Expected the custom 404 page")
	}
}

func TestServesMedia(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "posts"), 0o755)
	os.WriteFile(filepath.Join(dir, "posts", "a.txt"), []byte("stored"), 0o644)

	r, _ := setupTestServer(t, Deps{Media: media.NewStorage(dir)})

	resp := get(r, "/media/posts/a.txt", nil)
	if resp.Code != http.StatusOK || resp.Body.String() != "stored" {
		t.Errorf("Expected stored media file, got %d %q", resp.Code, resp.Body.String())
	}
}

func TestIndexCachePartitionedByViewer(t *testing.T) {
	pages := cache.NewMemoryCache()
	r, s := setupTestServer(t, Deps{Pages: pages, CacheTTL: DefaultCacheTTL})

	user := &models.User{Username: "leo", PasswordHash: "x", SystemRole: models.SystemRoleUser}
	s.CreateUser(context.Background(), user)
	token, _ := auth.GenerateToken(user.ID, user.Username, string(user.SystemRole))
	cookie := &http.Cookie{Name: auth.SessionCookie, Value: token}

	get(r, "/", nil)
	resp := get(r, "/", cookie)

	if resp.Header().Get(cache.HeaderCache) != "MISS" {
		t.Error("Expected logged in viewer not to get the anonymous page")
	}
	if !strings.Contains(resp.Body.String(), "/profile/leo/") {
		t.Error("Expected viewer navigation on the home page")
	}
	if pages.Len() != 2 {
		t.Errorf("Expected two cache entries, got %d", pages.Len())
	}
}

func TestCORS(t *testing.T) {
	r, _ := setupTestServer(t, Deps{CORSOrigins: []string{"http://example.com"}})

	req, _ := http.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("Expected CORS header, got %q", got)
	}
}
