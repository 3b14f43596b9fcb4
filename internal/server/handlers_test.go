package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"vibez/internal/middleware"
	"vibez/internal/models"
	"vibez/internal/service"
	"vibez/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	t        *testing.T
	app      *fiber.App
	db       *gorm.DB
	uploader *testutil.StubUploader
	secret   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testutil.TestConfig()
	db := testutil.NewSQLiteDB(t)
	uploader := testutil.NewStubUploader("https://cdn.test")
	identity := middleware.NewJWTIdentity(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, nil)

	s, err := NewServerWithDeps(cfg, db, nil, identity, uploader)
	require.NoError(t, err)
	return &testEnv{t: t, app: s.App(), db: db, uploader: uploader, secret: cfg.JWTSecret}
}

func (e *testEnv) token(userID uint) string {
	e.t.Helper()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": "vibez-api",
		"aud": "vibez-client",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(e.secret))
	require.NoError(e.t, err)
	return signed
}

// do sends a JSON request; userID 0 sends no credentials.
func (e *testEnv) do(method, path string, userID uint, body any) *http.Response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return e.send(req, userID)
}

func (e *testEnv) send(req *http.Request, userID uint) *http.Response {
	e.t.Helper()
	if userID != 0 {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+e.token(userID))
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[models.ErrorResponse](t, resp).Code
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/posts", 1, fiber.Map{"content": "hello #world #World"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decode[service.CreatePostResult](t, resp)
	post := created.Post
	assert.Equal(t, []string{"world"}, post.Hashtags)
	assert.Equal(t, uint(1), post.Author)
	postPath := fmt.Sprintf("/api/posts/%d", post.ID)

	resp = env.do(http.MethodPut, postPath, 2, fiber.Map{"content": "hijack"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodePermissionDenied, errorCode(t, resp))

	resp = env.do(http.MethodPatch, postPath, 1, fiber.Map{"content": "now about #go"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decode[service.PostView](t, resp)
	assert.Equal(t, "now about #go", updated.Content)
	assert.Equal(t, []string{"go"}, updated.Hashtags)

	resp = env.do(http.MethodPost, postPath+"/like", 3, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	like := decode[service.LikeResult](t, resp)
	assert.Equal(t, models.LikeStatusLiked, like.Status)
	assert.Equal(t, int64(1), like.LikesCount)

	resp = env.do(http.MethodPost, postPath+"/like", 3, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	like = decode[service.LikeResult](t, resp)
	assert.Equal(t, models.LikeStatusUnliked, like.Status)
	assert.Zero(t, like.LikesCount)

	resp = env.do(http.MethodPost, postPath+"/comments", 2, fiber.Map{"content": "first"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	top := decode[service.CreateCommentResult](t, resp).Comment

	resp = env.do(http.MethodPost, fmt.Sprintf("%s/comments/%d/replies", postPath, top.ID), 3, fiber.Map{"content": "reply"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	reply := decode[service.CreateCommentResult](t, resp).Comment
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	resp = env.do(http.MethodPost, fmt.Sprintf("/api/comments/%d/like", reply.ID), 1, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(http.MethodGet, postPath+"/comments", 0, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	thread := decode[[]service.CommentView](t, resp)
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, int64(1), thread[0].Replies[0].LikesCount)

	resp = env.do(http.MethodGet, fmt.Sprintf("/api/comments/%d", top.ID), 0, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	subtree := decode[service.CommentView](t, resp)
	assert.Len(t, subtree.Replies, 1)

	resp = env.do(http.MethodGet, "/api/posts/hashtag/GO", 0, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]service.PostView](t, resp), 1)

	resp = env.do(http.MethodDelete, postPath, 2, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodDelete, postPath, 1, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = env.do(http.MethodGet, postPath, 0, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var remaining int64
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestCreatePost_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/posts", 0, fiber.Map{"content": "hi"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, models.CodeUnauthorized, errorCode(t, resp))

	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader([]byte(`{"content":"hi"}`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/posts", 1, fiber.Map{"content": "   "})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, errorCode(t, resp))

	resp = env.do(http.MethodPost, "/api/posts", 1, fiber.Map{"content": string(bytes.Repeat([]byte("x"), 50001))})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body := decode[models.ErrorResponse](t, resp)
	assert.Contains(t, body.Fields, "content")
}

func TestCreatePost_MultipartMedia(t *testing.T) {
	env := newTestEnv(t)
	env.uploader.FailOn("broken.png")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("content", "look #media"))
	for _, name := range []string{"clip.MOV", "broken.png"} {
		part, err := w.CreateFormFile(mediaFormField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("bytes of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	resp := env.send(req, 1)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	result := decode[service.CreatePostResult](t, resp)
	require.Len(t, result.Post.Media, 1)
	assert.Equal(t, models.MediaKindVideo, result.Post.Media[0].Kind)
	assert.Equal(t, "https://cdn.test/clip.MOV", result.Post.Media[0].URL)
	require.Len(t, result.MediaErrors, 1)
	assert.Equal(t, "broken.png", result.MediaErrors[0].Filename)

	stored, ok := env.uploader.Stored("https://cdn.test/clip.MOV")
	require.True(t, ok)
	assert.Equal(t, "bytes of clip.MOV", string(stored))
}

func TestUpdatePost_EditWindowExpired(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/posts", 1, fiber.Map{"content": "old news"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	post := decode[service.CreatePostResult](t, resp).Post

	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("created_at", time.Now().Add(-21*time.Minute)).Error)

	resp = env.do(http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), 1, fiber.Map{"content": "too late"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodeEditWindowExpired, errorCode(t, resp))
}

func TestCreateComment_ParentOnOtherPost(t *testing.T) {
	env := newTestEnv(t)

	first := decode[service.CreatePostResult](t, env.do(http.MethodPost, "/api/posts", 1, fiber.Map{"content": "one"})).Post
	second := decode[service.CreatePostResult](t, env.do(http.MethodPost, "/api/posts", 1, fiber.Map{"content": "two"})).Post
	comment := decode[service.CreateCommentResult](t,
		env.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", first.ID), 2, fiber.Map{"content": "c"})).Comment

	resp := env.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", second.ID), 2,
		fiber.Map{"content": "wrong thread", "parent_id": comment.ID})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, errorCode(t, resp))

	resp = env.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments/9999/replies", first.ID), 2, fiber.Map{"content": "orphan"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCommentEditAndDelete(t *testing.T) {
	env := newTestEnv(t)

	post := decode[service.CreatePostResult](t, env.do(http.MethodPost, "/api/posts", 1, fiber.Map{"content": "p"})).Post
	comment := decode[service.CreateCommentResult](t,
		env.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), 2, fiber.Map{"content": "c"})).Comment
	path := fmt.Sprintf("/api/comments/%d", comment.ID)

	resp := env.do(http.MethodPut, path, 1, fiber.Map{"content": "not mine"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodPut, path, 2, fiber.Map{"content": "edited"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "edited", decode[service.CommentView](t, resp).Content)

	resp = env.do(http.MethodDelete, path, 1, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodDelete, path, 2, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = env.do(http.MethodGet, path, 0, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLikeState(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/posts", 1, fiber.Map{"content": "rate this"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	post := decode[service.CreatePostResult](t, resp).Post
	likePath := fmt.Sprintf("/api/posts/%d/like", post.ID)

	resp = env.do(http.MethodGet, likePath, 0, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.do(http.MethodPost, likePath, 2, nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(http.MethodGet, likePath, 2, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	state := decode[service.LikeResult](t, resp)
	assert.Equal(t, models.LikeStatusLiked, state.Status)
	assert.Equal(t, int64(1), state.LikesCount)

	resp = env.do(http.MethodGet, likePath, 3, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	state = decode[service.LikeResult](t, resp)
	assert.Equal(t, models.LikeStatusUnliked, state.Status)
	assert.Equal(t, int64(1), state.LikesCount)

	resp = env.do(http.MethodGet, "/api/comments/404/like", 2, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetPostsByHashtag_NonASCIITag(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/posts", 1, fiber.Map{"content": "coffee time #café"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	post := decode[service.CreatePostResult](t, resp).Post
	require.Equal(t, []string{"café"}, post.Hashtags)

	resp = env.do(http.MethodGet, "/api/posts/hashtag/caf%C3%A9", 0, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	posts := decode[[]service.PostView](t, resp)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)

	resp = env.do(http.MethodGet, "/api/posts/hashtag/caf%ZZ", 0, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestNotFoundAndBadIDs(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/posts/hashtag/unknown", 0, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/posts/abc", 0, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodPost, "/api/posts/404/like", 1, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodPost, "/api/comments/404/like", 1, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/posts/404/comments", 0, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/health/live", 0, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(http.MethodGet, "/health/ready", 0, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])
}
