package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/handler"
	"taskmanager/internal/middleware"
	"taskmanager/internal/model"
	"taskmanager/internal/service"
	"taskmanager/internal/storage"
)

type testServer struct {
	t    *testing.T
	echo *echo.Echo
	db   *memDB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Session.Secret = "router-test-secret"
	cfg.Auth.RateLimit = ""
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db := newMemDB()
	users := memUsers{db: db}
	tasks := memTasks{db: db}
	revocations := memRevocations{db: db}

	store, err := storage.NewBlobStore(context.Background(), "mem://", "http://localhost:3289/uploads")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	issuer := auth.NewSessionIssuer(cfg.Session.Secret, cfg.Session.TTL)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	cookies := auth.NewCookies(cfg.Session)

	authService := service.NewAuthService(users, issuer, hasher, revocations, nil, logger)
	taskService := service.NewTaskService(tasks)
	profileService := service.NewProfileService(users, hasher, store, nil, cfg.Storage.MaxUploadBytes, logger)

	e := echo.New()
	require.NoError(t, Register(e, Params{
		Config:  cfg,
		Logger:  logger,
		Gate:    middleware.NewSessionGate(issuer, revocations, cookies.Name()),
		Auth:    handler.NewAuthHandler(authService, cookies),
		Tasks:   handler.NewTaskHandler(taskService),
		Profile: handler.NewProfileHandler(profileService, authService, cookies, cfg.Storage.MaxUploadBytes),
		Uploads: handler.NewUploadHandler(store),
	}))

	return &testServer{t: t, echo: e, db: db}
}

func (s *testServer) do(method, path string, body interface{}, session *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(username, email string) *http.Cookie {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username":  username,
		"firstname": strings.ToUpper(username[:1]) + username[1:],
		"email":     email,
		"password":  "secret123",
	}, nil)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(s.t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username":  "bob",
		"firstname": "Bob",
		"email":     "bob@x.com",
		"password":  "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	signup := decode[handler.SessionResponse](t, rec)
	assert.Equal(t, "bob@x.com", signup.User.Email)
	assert.NotZero(t, signup.User.ID)

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)

	rec = s.do(http.MethodGet, "/api/tasks", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/tasks", map[string]string{"title": "Write report"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Task](t, rec)
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, model.TaskStatusPending, created.Status)
	assert.Nil(t, created.Description)
	assert.False(t, created.CreatedAt.IsZero())
	taskPath := fmt.Sprintf("/api/tasks/%d", created.ID)

	rec = s.do(http.MethodGet, taskPath, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[model.Task](t, rec)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Title, fetched.Title)
	assert.Equal(t, created.Status, fetched.Status)
	assert.True(t, created.CreatedAt.Equal(fetched.CreatedAt))

	rec = s.do(http.MethodPut, taskPath, map[string]string{"status": "working"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[model.Task](t, rec)
	assert.Equal(t, "Write report", updated.Title)
	assert.Nil(t, updated.Description)
	assert.Equal(t, model.TaskStatusWorking, updated.Status)

	rec = s.do(http.MethodPut, taskPath, map[string]string{"status": "done"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPut, taskPath, map[string]string{}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No fields to update", decode[apperrors.ErrorResponse](t, rec).Message)

	rec = s.do(http.MethodGet, taskPath, nil, cookie)
	assert.Equal(t, model.TaskStatusWorking, decode[model.Task](t, rec).Status)

	rec = s.do(http.MethodDelete, taskPath, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, taskPath, nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", decode[apperrors.ErrorResponse](t, rec).Message)
}

func TestCreateTask_Validation(t *testing.T) {
	s := newTestServer(t)
	cookie := s.signup("bob", "bob@x.com")

	rec := s.do(http.MethodPost, "/api/tasks", map[string]string{"description": "no title"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/tasks", map[string]string{"title": "x", "status": "archived"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[apperrors.ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, "/api/tasks", map[string]string{"title": "x", "status": "completed", "description": "d"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[model.Task](t, rec)
	assert.Equal(t, model.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.Description)
	assert.Equal(t, "d", *task.Description)
}

func TestTasksAreOwnerScoped(t *testing.T) {
	s := newTestServer(t)
	bob := s.signup("bob", "bob@x.com")
	alice := s.signup("alice", "alice@x.com")

	rec := s.do(http.MethodPost, "/api/tasks", map[string]string{"title": "bob's"}, bob)
	require.Equal(t, http.StatusCreated, rec.Code)
	taskPath := fmt.Sprintf("/api/tasks/%d", decode[model.Task](t, rec).ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, taskPath, nil, alice).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, taskPath, map[string]string{"title": "mine"}, alice).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, taskPath, nil, alice).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/tasks/9999", nil, alice).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/tasks/abc", nil, alice).Code)

	rec = s.do(http.MethodGet, "/api/tasks", nil, alice)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodGet, taskPath, nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob's", decode[model.Task](t, rec).Title)
}

func TestSignup_Conflict(t *testing.T) {
	s := newTestServer(t)
	s.signup("bob", "bob@x.com")

	rec := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"username":  "robert",
		"firstname": "Robert",
		"email":     "bob@x.com",
		"password":  "different",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already exists", decode[apperrors.ErrorResponse](t, rec).Message)
}

func TestSignup_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []map[string]string{
		{"username": "bob", "firstname": "Bob", "password": "pw"},
		{"username": "bob", "firstname": "Bob", "email": "bob@x", "password": "pw"},
		{"firstname": "Bob", "email": "bob@x.com", "password": "pw"},
		{"username": "bob", "email": "bob@x.com", "password": "pw"},
		{"username": "bob", "firstname": "Bob", "email": "bob@x.com"},
	}
	for _, body := range tests {
		rec := s.do(http.MethodPost, "/api/auth/signup", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestLogin_DoesNotRevealUnknownEmail(t *testing.T) {
	s := newTestServer(t)
	s.signup("bob", "bob@x.com")

	wrongPassword := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "bob@x.com", "password": "nope"}, nil)
	unknownEmail := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ghost@x.com", "password": "nope"}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Equal(t, "Invalid credentials", decode[apperrors.ErrorResponse](t, unknownEmail).Message)

	ok := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "bob@x.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "bob@x.com", decode[handler.SessionResponse](t, ok).User.Email)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/tasks", nil, sessionCookie(t, ok)).Code)
}

func TestSessionGate(t *testing.T) {
	s := newTestServer(t)
	cookie := s.signup("bob", "bob@x.com")

	rec := s.do(http.MethodGet, "/api/tasks", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided", decode[apperrors.ErrorResponse](t, rec).Message)

	rec = s.do(http.MethodGet, "/api/profile", nil, &http.Cookie{Name: "token", Value: cookie.Value + "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/auth/authCheck", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	check := decode[handler.AuthCheckResponse](t, rec)
	assert.True(t, check.IsAuthenticated)
	assert.Equal(t, "bob@x.com", check.User.Email)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	cookie := s.signup("bob", "bob@x.com")

	rec := s.do(http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/tasks", nil, cookie).Code)

	// Logging out without a session still succeeds.
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/logout", nil, nil).Code)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	bob := s.signup("bob", "bob@x.com")
	s.signup("alice", "alice@x.com")

	rec := s.do(http.MethodGet, "/api/profile", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	profile := decode[handler.ProfileResponse](t, rec)
	assert.Equal(t, "bob", profile.User.Username)
	assert.Nil(t, profile.User.ProfilePicture)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/api/profile", map[string]string{}, bob).Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPatch, "/api/profile", map[string]string{"email": "alice@x.com"}, bob).Code)

	rec = s.do(http.MethodPatch, "/api/profile", map[string]string{"lastname": "Builder"}, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	profile = decode[handler.ProfileResponse](t, s.do(http.MethodGet, "/api/profile", nil, bob))
	require.NotNil(t, profile.User.Lastname)
	assert.Equal(t, "Builder", *profile.User.Lastname)
	assert.Equal(t, "Bob", profile.User.Firstname)

	rec = s.do(http.MethodPut, "/api/profile", map[string]string{"currentPassword": "wrong", "newPassword": "n3w"}, bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", decode[apperrors.ErrorResponse](t, rec).Message)

	rec = s.do(http.MethodPut, "/api/profile", map[string]string{"currentPassword": "secret123", "newPassword": "n3w"}, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	login := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "bob@x.com", "password": "n3w"}, nil)
	assert.Equal(t, http.StatusOK, login.Code)
}

func TestUploadProfilePicture(t *testing.T) {
	s := newTestServer(t)
	bob := s.signup("bob", "bob@x.com")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	upload := func(field string, data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile(field, "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/profile/uploadProfilePicture", &buf)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		req.AddCookie(bob)
		rec := httptest.NewRecorder()
		s.echo.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("profile_image", png)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	url := decode[handler.ProfilePictureResponse](t, rec).ProfilePictureURL
	assert.True(t, strings.HasPrefix(url, "http://localhost:3289/uploads/profile_pictures/"), url)

	profile := decode[handler.ProfileResponse](t, s.do(http.MethodGet, "/api/profile", nil, bob))
	require.NotNil(t, profile.User.ProfilePicture)
	assert.Equal(t, url, *profile.User.ProfilePicture)

	served := s.do(http.MethodGet, strings.TrimPrefix(url, "http://localhost:3289"), nil, nil)
	require.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "image/png", served.Header().Get(echo.HeaderContentType))
	assert.Equal(t, png, served.Body.Bytes())

	assert.Equal(t, http.StatusBadRequest, upload("avatar", png).Code)
	rec = upload("profile_image", []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only image files are allowed", decode[apperrors.ErrorResponse](t, rec).Message)
}

func TestDeleteAccount(t *testing.T) {
	s := newTestServer(t)
	bob := s.signup("bob", "bob@x.com")
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/tasks", map[string]string{"title": "t"}, bob).Code)

	rec := s.do(http.MethodDelete, "/api/auth/deleteAccount", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sessionCookie(t, rec).Value)
	assert.Empty(t, s.db.tasks)
	assert.Empty(t, s.db.users)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/profile", nil, bob).Code)

	again := s.signup("bob", "bob@x.com")
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/profile/deleteProfile", nil, again).Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", nil, nil).Code)
}
