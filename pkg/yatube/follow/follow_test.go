package follow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/events"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
	"github.com/mikepea/yatube/pkg/yatube/web"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *store.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return store.New(db)
}

func setupTestRouter(svc *Service, s *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	web.Load(r)
	r.Use(auth.SessionMiddleware(s))
	NewHandler(svc).RegisterRoutes(&r.RouterGroup)
	return r
}

func createTestUser(t *testing.T, s *store.Store, username string) *models.User {
	user := &models.User{Username: username, PasswordHash: "hash", SystemRole: models.SystemRoleUser}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func followedPosts(t *testing.T, s *store.Store, user *models.User) int64 {
	n, err := s.CountPosts(context.Background(), store.PostFilter{Kind: store.FilterFollowed, FollowerID: user.ID})
	if err != nil {
		t.Fatalf("CountPosts failed: %v", err)
	}
	return n
}

func TestFollowUnfollowRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	rec := &events.Recorder{}
	svc := NewService(s, s, rec)
	reader := createTestUser(t, s, "reader")
	leo := createTestUser(t, s, "leo")
	s.CreatePost(context.Background(), &models.Post{Text: "hi", AuthorID: leo.ID})
	ctx := context.Background()

	if followedPosts(t, s, reader) != 0 {
		t.Fatal("Expected empty follow feed before following")
	}

	out, err := svc.Follow(ctx, reader, "leo")
	if err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	if out.Redirect != FeedURL {
		t.Errorf("Expected redirect to %s, got %s", FeedURL, out.Redirect)
	}
	if followedPosts(t, s, reader) != 1 {
		t.Error("Expected leo's post in the follow feed")
	}

	if _, err := svc.Unfollow(ctx, reader, "leo"); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if followedPosts(t, s, reader) != 0 {
		t.Error("Expected follow feed back to empty")
	}

	got := rec.Events()
	if len(got) != 2 || got[0].Type != events.Followed || got[1].Type != events.Unfollowed {
		t.Errorf("Expected follow then unfollow events, got %+v", got)
	}
}

func TestFollowTwiceCreatesDuplicateEdges(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, s, nil)
	reader := createTestUser(t, s, "reader")
	leo := createTestUser(t, s, "leo")
	ctx := context.Background()

	svc.Follow(ctx, reader, "leo")
	svc.Follow(ctx, reader, "leo")

	n, _ := s.FollowerCount(ctx, leo.ID)
	if n != 2 {
		t.Errorf("Expected 2 follow edges, got %d", n)
	}

	svc.Unfollow(ctx, reader, "leo")
	if following, _ := s.IsFollowing(ctx, reader.ID, leo.ID); following {
		t.Error("Expected unfollow to remove every edge")
	}
}

func TestUnfollowMissingEdgeIsNoop(t *testing.T) {
	s := setupTestStore(t)
	rec := &events.Recorder{}
	svc := NewService(s, s, rec)
	reader := createTestUser(t, s, "reader")
	createTestUser(t, s, "leo")

	out, err := svc.Unfollow(context.Background(), reader, "leo")
	if err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if out.Redirect != FeedURL {
		t.Errorf("Expected redirect to %s, got %s", FeedURL, out.Redirect)
	}
	if len(rec.Events()) != 0 {
		t.Error("Expected no event for a no-op unfollow")
	}
}

func TestFollowRejections(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, s, nil)
	reader := createTestUser(t, s, "reader")
	createTestUser(t, s, "leo")
	ctx := context.Background()

	out, err := svc.Follow(ctx, nil, "leo")
	if err != nil || out.Access != auth.Unauthenticated {
		t.Errorf("Expected unauthenticated, got %+v %v", out, err)
	}

	if _, err := svc.Follow(ctx, reader, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown author, got %v", err)
	}
	if _, err := svc.Unfollow(ctx, reader, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown author, got %v", err)
	}
}

func TestFollowHandlers(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(NewService(s, s, nil), s)
	reader := createTestUser(t, s, "reader")
	leo := createTestUser(t, s, "leo")
	token, _ := auth.GenerateToken(reader.ID, reader.Username, string(reader.SystemRole))

	req, _ := http.NewRequest("GET", "/profile/leo/follow/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusFound || resp.Header().Get("Location") != "/auth/login/?next=/profile/leo/follow/" {
		t.Errorf("Expected login redirect, got %d %s", resp.Code, resp.Header().Get("Location"))
	}

	req, _ = http.NewRequest("GET", "/profile/leo/follow/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusFound || resp.Header().Get("Location") != FeedURL {
		t.Errorf("Expected redirect to follow feed, got %d %s", resp.Code, resp.Header().Get("Location"))
	}
	if following, _ := s.IsFollowing(context.Background(), reader.ID, leo.ID); !following {
		t.Error("Expected follow edge")
	}

	req, _ = http.NewRequest("GET", "/profile/leo/unfollow/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusFound {
		t.Errorf("Expected status 302, got %d", resp.Code)
	}
	if following, _ := s.IsFollowing(context.Background(), reader.ID, leo.ID); following {
		t.Error("Expected follow edge removed")
	}

	req, _ = http.NewRequest("GET", "/profile/ghost/follow/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}
