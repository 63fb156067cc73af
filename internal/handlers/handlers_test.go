package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/query"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/validators"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (*models.Identity, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &models.Identity{Subject: "user_1", Email: "a@example.com"}, nil
}

type fakePosts struct {
	filter    query.PostFilter
	posts     []models.Post
	err       error
	created   *models.CreatePostRequest
	updatedID uint
	deletedID uint
	caller    models.Identity
}

func (f *fakePosts) List(_ context.Context, filter query.PostFilter) ([]models.Post, error) {
	f.filter = filter
	return f.posts, f.err
}

func (f *fakePosts) Get(_ context.Context, id uint) (*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Post{ID: id, Title: "t"}, nil
}

func (f *fakePosts) Create(_ context.Context, identity models.Identity, req *models.CreatePostRequest) (*models.Post, error) {
	f.caller, f.created = identity, req
	return &models.Post{ID: 7, Title: req.Title, AuthorID: identity.Subject}, f.err
}

func (f *fakePosts) Update(_ context.Context, identity models.Identity, id uint, _ *models.UpdatePostRequest) (*models.Post, error) {
	f.caller, f.updatedID = identity, id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Post{ID: id}, nil
}

func (f *fakePosts) Delete(_ context.Context, identity models.Identity, id uint) error {
	f.caller, f.deletedID = identity, id
	return f.err
}

type fakeFavorites struct {
	postID uint
	action string
	err    error
}

func (f *fakeFavorites) List(context.Context, models.Identity) ([]models.Favorite, error) {
	return []models.Favorite{{ID: 1, PostID: 3}}, f.err
}

func (f *fakeFavorites) Toggle(_ context.Context, _ models.Identity, postID uint, action string) (*models.Favorite, error) {
	f.postID, f.action = postID, action
	if f.err != nil {
		return nil, f.err
	}
	if action == models.FavoriteActionRemove {
		return nil, nil
	}
	return &models.Favorite{ID: 9, PostID: postID}, nil
}

type fakeUploads struct {
	called bool
	err    error
}

func (f *fakeUploads) Upload(_ context.Context, _ models.Identity, file *multipart.FileHeader) (*services.UploadResult, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return &services.UploadResult{FileName: "user_1/" + file.Filename, URL: "http://cdn/x"}, nil
}

type fakeIngestion struct {
	headerType string
	env        *models.WebhookEnvelope
	result     *services.IngestionResult
	err        error
}

func (f *fakeIngestion) Ingest(_ context.Context, headerType string, env *models.WebhookEnvelope, _ []byte) (*services.IngestionResult, error) {
	f.headerType, f.env = headerType, env
	return f.result, f.err
}

type fakeUsers struct{}

func (fakeUsers) EnsureUser(_ context.Context, identity models.Identity) (*models.User, error) {
	return identity.PlaceholderUser(), nil
}

type testDeps struct {
	posts     *fakePosts
	favorites *fakeFavorites
	uploads   *fakeUploads
	ingestion *fakeIngestion
}

func newTestServer() (*echo.Echo, *testDeps) {
	d := &testDeps{
		posts:     &fakePosts{},
		favorites: &fakeFavorites{},
		uploads:   &fakeUploads{},
		ingestion: &fakeIngestion{},
	}
	e := echo.New()
	e.JSONSerializer = JSONSerializer{}
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	auth := middleware.RequireAuth(fakeVerifier{})
	api := e.Group("/api/v1")
	NewPostHandler(d.posts).RegisterPostRoutes(api, auth)
	NewWebhookHandler(d.ingestion).RegisterWebhookRoutes(api)
	protected := api.Group("", auth)
	NewFavoriteHandler(d.favorites).RegisterFavoriteRoutes(protected)
	NewUploadHandler(d.uploads).RegisterUploadRoutes(protected)
	NewUserHandler(fakeUsers{}).RegisterProfileRoutes(protected)
	e.GET("/health", HealthCheck)
	return e, d
}

func do(e *echo.Echo, method, target, body string, authed bool) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authed {
		req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestGetPostsParsesFilter(t *testing.T) {
	e, d := newTestServer()
	d.posts.posts = []models.Post{{ID: 1, Title: "a"}}

	rec, body := do(e, http.MethodGet, "/api/v1/posts?category=%E6%8A%80%E8%A1%93&sortBy=title&sortOrder=asc&tags=go,,rust", "", false)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Success", body["message"])
	assert.Len(t, body["posts"], 1)
	assert.Equal(t, query.PostFilter{
		Category: "技術",
		Tags:     []string{"go", "rust"},
		Sort:     query.SortByTitle,
		Order:    query.Asc,
	}, d.posts.filter)
}

func TestGetPostsRejectsUnknownSort(t *testing.T) {
	e, _ := newTestServer()

	rec, body := do(e, http.MethodGet, "/api/v1/posts?sortBy=password", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "invalid sort parameters")

	rec, _ = do(e, http.MethodGet, "/api/v1/posts?sortOrder=sideways", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPostsUpstreamFailure(t *testing.T) {
	e, d := newTestServer()
	d.posts.err = errors.New("connection refused")

	rec, body := do(e, http.MethodGet, "/api/v1/posts", "", false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error", body["message"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestGetPost(t *testing.T) {
	e, d := newTestServer()

	rec, _ := do(e, http.MethodGet, "/api/v1/posts/12", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(e, http.MethodGet, "/api/v1/posts/abc", "", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	d.posts.err = services.ErrPostNotFound
	rec, body := do(e, http.MethodGet, "/api/v1/posts/12", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "post not found", body["message"])
}

func TestCreatePost(t *testing.T) {
	e, d := newTestServer()

	rec, _ := do(e, http.MethodPost, "/api/v1/posts", `{"title":"Hello","description":"World"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, d.posts.created)

	rec, body := do(e, http.MethodPost, "/api/v1/posts", `{"description":"World"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", body["message"])
	assert.Nil(t, d.posts.created)

	rec, body = do(e, http.MethodPost, "/api/v1/posts", `{"title":"Hello","description":"World","tags":["go"]}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_1", d.posts.caller.Subject)
	assert.Equal(t, []string{"go"}, d.posts.created.Tags)
	assert.Equal(t, "user_1", body["post"].(map[string]interface{})["authorId"])
}

func TestUpdateAndDeletePostErrors(t *testing.T) {
	e, d := newTestServer()

	d.posts.err = services.ErrForbidden
	rec, _ := do(e, http.MethodPut, "/api/v1/posts/5", `{"title":"x"}`, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, uint(5), d.posts.updatedID)

	d.posts.err = services.ErrPostNotFound
	rec, _ = do(e, http.MethodDelete, "/api/v1/posts/6", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, uint(6), d.posts.deletedID)

	d.posts.err = nil
	rec, body := do(e, http.MethodDelete, "/api/v1/posts/6", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post deleted successfully", body["message"])
}

func TestToggleFavorite(t *testing.T) {
	e, d := newTestServer()

	rec, body := do(e, http.MethodPost, "/api/v1/favorites", `{"postId":"42","action":"add"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(42), d.favorites.postID)
	assert.Equal(t, "Favorite added", body["message"])
	assert.NotNil(t, body["favorite"])

	rec, body = do(e, http.MethodPost, "/api/v1/favorites", `{"postId":42,"action":"remove"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Favorite removed", body["message"])
	assert.NotContains(t, body, "favorite")

	d.favorites.err = services.ErrInvalidAction
	rec, body = do(e, http.MethodPost, "/api/v1/favorites", `{"postId":42,"action":"flip"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid action", body["message"])

	rec, _ = do(e, http.MethodPost, "/api/v1/favorites", `{"postId":"abc","action":"add"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(e, http.MethodGet, "/api/v1/favorites", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	return req
}

func TestUploadImage(t *testing.T) {
	e, d := newTestServer()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, multipartRequest(t, "file", "cat.png", []byte("png-bytes")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, d.uploads.called)
	assert.Contains(t, rec.Body.String(), `"fileName":"user_1/cat.png"`)

	d.uploads.called = false
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, multipartRequest(t, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no file selected")
	assert.False(t, d.uploads.called)

	d.uploads.err = services.ErrFileTooLarge
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, multipartRequest(t, "file", "big.png", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook(t *testing.T) {
	e, d := newTestServer()

	rec, body := do(e, http.MethodGet, "/api/v1/webhook", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "webhook endpoint is working", body["message"])

	d.ingestion.result = &services.IngestionResult{EventType: models.EventUserCreated, Outcome: models.OutcomeCreated, Message: "user created successfully"}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(`{"data":{"id":"user_9","email_addresses":[{"email_address":"x@y.z"}]}}`))
	req.Header.Set("clerk-event", models.EventUserCreated)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user created successfully")
	assert.Equal(t, models.EventUserCreated, d.ingestion.headerType)
	assert.Equal(t, "user_9", d.ingestion.env.User().ID)

	d.ingestion.err = fmt.Errorf("%w - missing email", services.ErrInsufficientUserData)
	rec, body = do(e, http.MethodPost, "/api/v1/webhook", `{"type":"user.created"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user data insufficient - missing email", body["message"])

	rec, _ = do(e, http.MethodPost, "/api/v1/webhook", `{not json`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileAndHealth(t *testing.T) {
	e, _ := newTestServer()

	rec, body := do(e, http.MethodGet, "/api/v1/profile", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_1", body["user"].(map[string]interface{})["id"])

	rec, _ = do(e, http.MethodGet, "/api/v1/profile", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(e, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBodyLimitAnswersFileTooLarge(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.POST("/upload", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, echomw.BodyLimit("1K"))

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 4096)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "file is too large", body.Message)
}
