package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/yatube/pkg/yatube/auth"
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

func setupTestRouter(s *store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	web.Load(r)
	r.Use(auth.SessionMiddleware(s))
	NewHandler(NewService(s, s, s), s).RegisterRoutes(&r.RouterGroup)
	return r
}

func createTestUser(t *testing.T, s *store.Store, username string) *models.User {
	user := &models.User{Username: username, PasswordHash: "hash", SystemRole: models.SystemRoleUser}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestGroup(t *testing.T, s *store.Store, slug string) *models.Group {
	group := &models.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	if err := s.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}
	return group
}

// createTestPosts creates n posts with strictly increasing timestamps.
func createTestPosts(t *testing.T, s *store.Store, author *models.User, group *models.Group, n int) []models.Post {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := models.Post{
			Text:      fmt.Sprintf("post %d by %s", i, author.Username),
			AuthorID:  author.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			post.GroupID = &group.ID
		}
		if err := s.CreatePost(context.Background(), &post); err != nil {
			t.Fatalf("Failed to create test post: %v", err)
		}
		posts = append(posts, post)
	}
	return posts
}

func loginAs(t *testing.T, req *http.Request, user *models.User) {
	token, err := auth.GenerateToken(user.ID, user.Username, string(user.SystemRole))
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
}

func TestPageFor(t *testing.T) {
	cases := []struct {
		total    int64
		raw      string
		number   int
		numPages int
	}{
		{0, "", 1, 1},
		{0, "5", 1, 1},
		{13, "", 1, 2},
		{13, "2", 2, 2},
		{13, "abc", 1, 2},
		{13, "0", 2, 2},
		{13, "-1", 2, 2},
		{13, "99", 2, 2},
		{10, "2", 1, 1},
		{11, " 2 ", 2, 2},
		{13, "99999999999999999999", 2, 2},
		{13, "-99999999999999999999", 2, 2},
	}
	for _, tc := range cases {
		p := PageFor(tc.total, tc.raw)
		if p.Number != tc.number || p.NumPages != tc.numPages {
			t.Errorf("PageFor(%d, %q): expected page %d of %d, got %d of %d",
				tc.total, tc.raw, tc.number, tc.numPages, p.Number, p.NumPages)
		}
	}
}

func TestPageNavigation(t *testing.T) {
	p := PageFor(25, "2")
	if !p.HasPrevious || !p.HasNext {
		t.Error("Expected middle page to have previous and next")
	}
	if p.PreviousNumber != 1 || p.NextNumber != 3 {
		t.Errorf("Expected neighbours 1 and 3, got %d and %d", p.PreviousNumber, p.NextNumber)
	}
	if p.Offset() != 10 {
		t.Errorf("Expected offset 10, got %d", p.Offset())
	}
}

func TestListPostsPaginates(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, s, s)
	author := createTestUser(t, s, "leo")
	createTestPosts(t, s, author, nil, 13)
	ctx := context.Background()

	first, err := svc.ListPosts(ctx, Filter{Kind: All}, "")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(first.Page.Posts) != 10 {
		t.Errorf("Expected 10 posts on page 1, got %d", len(first.Page.Posts))
	}
	if first.Page.Posts[0].Text != "post 12 by leo" {
		t.Errorf("Expected newest post first, got %q", first.Page.Posts[0].Text)
	}
	if first.Page.Posts[0].Author.Username != "leo" {
		t.Error("Expected author to be preloaded")
	}

	second, err := svc.ListPosts(ctx, Filter{Kind: All}, "2")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(second.Page.Posts) != 3 {
		t.Errorf("Expected 3 posts on page 2, got %d", len(second.Page.Posts))
	}
	if second.Page.Posts[2].Text != "post 0 by leo" {
		t.Errorf("Expected oldest post last, got %q", second.Page.Posts[2].Text)
	}
}

func TestListPostsEmpty(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, s, s)

	res, err := svc.ListPosts(context.Background(), Filter{Kind: All}, "3")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if res.Page.Number != 1 || len(res.Page.Posts) != 0 {
		t.Errorf("Expected empty page 1, got page %d with %d posts", res.Page.Number, len(res.Page.Posts))
	}
}

func TestListPostsByGroup(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, s, s)
	author := createTestUser(t, s, "leo")
	cats := createTestGroup(t, s, "cats")
	createTestPosts(t, s, author, cats, 2)
	createTestPosts(t, s, author, nil, 3)

	res, err := svc.ListPosts(context.Background(), Filter{Kind: ByGroup, GroupSlug: "cats"}, "")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if res.Page.Total != 2 {
		t.Errorf("Expected 2 group posts, got %d", res.Page.Total)
	}
	if res.Group == nil || res.Group.Slug != "cats" {
		t.Error("Expected the group in the result")
	}

	_, err = svc.ListPosts(context.Background(), Filter{Kind: ByGroup, GroupSlug: "dogs"}, "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown group, got %v", err)
	}
}

func TestListPostsByAuthor(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, s, s)
	leo := createTestUser(t, s, "leo")
	ann := createTestUser(t, s, "ann")
	createTestPosts(t, s, leo, nil, 4)
	createTestPosts(t, s, ann, nil, 1)

	res, err := svc.ListPosts(context.Background(), Filter{Kind: ByAuthor, Username: "leo"}, "")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if res.Page.Total != 4 {
		t.Errorf("Expected 4 posts by leo, got %d", res.Page.Total)
	}
	for _, p := range res.Page.Posts {
		if p.AuthorID != leo.ID {
			t.Errorf("Unexpected author %d in profile feed", p.AuthorID)
		}
	}

	_, err = svc.ListPosts(context.Background(), Filter{Kind: ByAuthor, Username: "nobody"}, "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown author, got %v", err)
	}
}

func TestListPostsByFollowed(t *testing.T) {
	s := setupTestStore(t)
	svc := NewService(s, s, s)
	reader := createTestUser(t, s, "reader")
	leo := createTestUser(t, s, "leo")
	ann := createTestUser(t, s, "ann")
	createTestPosts(t, s, leo, nil, 2)
	createTestPosts(t, s, ann, nil, 3)
	ctx := context.Background()

	if _, err := svc.ListPosts(ctx, Filter{Kind: ByFollowed}, ""); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("Expected ErrAuthRequired without viewer, got %v", err)
	}

	res, _ := svc.ListPosts(ctx, Filter{Kind: ByFollowed, Viewer: reader}, "")
	if res.Page.Total != 0 {
		t.Errorf("Expected empty follow feed, got %d", res.Page.Total)
	}

	// Duplicate edges must not duplicate posts.
	s.CreateFollow(ctx, reader.ID, leo.ID)
	s.CreateFollow(ctx, reader.ID, leo.ID)

	res, err := svc.ListPosts(ctx, Filter{Kind: ByFollowed, Viewer: reader}, "")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if res.Page.Total != 2 || len(res.Page.Posts) != 2 {
		t.Errorf("Expected leo's 2 posts, got total %d with %d posts", res.Page.Total, len(res.Page.Posts))
	}
}

func TestIndexHandler(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	author := createTestUser(t, s, "leo")
	createTestPosts(t, s, author, nil, 11)

	req, _ := http.NewRequest("GET", "/?page=2", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "post 0 by leo") {
		t.Error("Expected the oldest post on page 2")
	}
	if strings.Contains(body, "post 10 by leo") {
		t.Error("Did not expect the newest post on page 2")
	}
	if !strings.Contains(body, "Page 2 of 2") {
		t.Error("Expected paginator on page 2")
	}
}

func TestGroupHandlerNotFound(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)

	req, _ := http.NewRequest("GET", "/group/nothing/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

func TestGroupHandler(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	author := createTestUser(t, s, "leo")
	cats := createTestGroup(t, s, "cats")
	createTestPosts(t, s, author, cats, 1)

	req, _ := http.NewRequest("GET", "/group/cats/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Group cats") {
		t.Error("Expected the group title")
	}
}

func TestProfileHandlerFollowState(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	leo := createTestUser(t, s, "leo")
	reader := createTestUser(t, s, "reader")
	createTestPosts(t, s, leo, nil, 3)

	// Anonymous viewers get no follow controls.
	req, _ := http.NewRequest("GET", "/profile/leo/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "posts: 3") {
		t.Error("Expected the post count on the profile")
	}
	if strings.Contains(body, "/profile/leo/follow/") {
		t.Error("Did not expect follow link for anonymous viewer")
	}

	req, _ = http.NewRequest("GET", "/profile/leo/", nil)
	loginAs(t, req, reader)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if !strings.Contains(resp.Body.String(), "/profile/leo/follow/") {
		t.Error("Expected follow link for logged in viewer")
	}

	s.CreateFollow(context.Background(), reader.ID, leo.ID)
	req, _ = http.NewRequest("GET", "/profile/leo/", nil)
	loginAs(t, req, reader)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if !strings.Contains(resp.Body.String(), "/profile/leo/unfollow/") {
		t.Error("Expected unfollow link once following")
	}

	// Own profile has no follow controls.
	req, _ = http.NewRequest("GET", "/profile/leo/", nil)
	loginAs(t, req, leo)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if strings.Contains(resp.Body.String(), "/profile/leo/follow/") {
		t.Error("Did not expect follow link on own profile")
	}
}

func TestProfileHandlerNotFound(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)

	req, _ := http.NewRequest("GET", "/profile/ghost/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

func TestFollowIndexRequiresLogin(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)

	req, _ := http.NewRequest("GET", "/follow/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/auth/login/?next=/follow/" {
		t.Errorf("Expected login redirect, got %s", loc)
	}
}

func TestFollowIndexHandler(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(s)
	reader := createTestUser(t, s, "reader")
	leo := createTestUser(t, s, "leo")
	ann := createTestUser(t, s, "ann")
	createTestPosts(t, s, leo, nil, 1)
	createTestPosts(t, s, ann, nil, 1)
	s.CreateFollow(context.Background(), reader.ID, leo.ID)

	req, _ := http.NewRequest("GET", "/follow/", nil)
	loginAs(t, req, reader)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "post 0 by leo") {
		t.Error("Expected followed author's post")
	}
	if strings.Contains(body, "post 0 by ann") {
		t.Error("Did not expect unfollowed author's post")
	}
}
