package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ayush7kr/TaskManagementSystem/internal/config"
	database "github.com/Ayush7kr/TaskManagementSystem/internal/db"
	"github.com/Ayush7kr/TaskManagementSystem/internal/mail"
	"github.com/Ayush7kr/TaskManagementSystem/internal/models"
	"github.com/Ayush7kr/TaskManagementSystem/internal/storage"
)

const testSecret = "test-secret"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = testSecret
	cfg.Team.OpenManagement = true
	cfg.Storage.Provider = "local"
	cfg.Storage.LocalPath = t.TempDir()
	cfg.Storage.Bucket = "taskmaster"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))

	return New(cfg, &database.Client{DB: db}, storage.New(cfg), mail.NullDispatcher{})
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// registerAndLogin creates an account and returns its bearer token.
func registerAndLogin(t *testing.T, srv *Server, username, email, password string) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "",
		gin.H{"username": username, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegister_SanitizedResponse(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "",
		gin.H{"username": "alice", "email": "alice@x.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, w.Body.String(), "secret1")
	assert.NotContains(t, w.Body.String(), "PasswordHash")
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestRegister_Duplicates(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	// Same email, different username.
	w := doJSON(t, srv, http.MethodPost, "/api/auth/register", "",
		gin.H{"username": "alice2", "email": "alice@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Same username, different email.
	w = doJSON(t, srv, http.MethodPost, "/api/auth/register", "",
		gin.H{"username": "alice", "email": "other@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_EnumerationResistance(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	wrongPass := doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "alice@x.com", "password": "wrong"})
	noAccount := doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "ghost@x.com", "password": "whatever"})

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, noAccount.Code)
	assert.Equal(t, wrongPass.Body.String(), noAccount.Body.String(),
		"wrong password and unknown email must be indistinguishable")

	missing := doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "alice@x.com"})
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestAuthGate(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	// Missing token.
	w := doJSON(t, srv, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token is forbidden, not merely unauthorized.
	w = doJSON(t, srv, http.MethodGet, "/api/tasks", "not.a.jwt", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Token signed with a different secret.
	foreign := signToken(t, "other-secret", 1, time.Now().Add(time.Hour))
	w = doJSON(t, srv, http.MethodGet, "/api/tasks", foreign, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Expired token is 401 with a distinct message.
	registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")
	expired := signToken(t, testSecret, 1, time.Now().Add(-time.Minute))
	w = doJSON(t, srv, http.MethodGet, "/api/tasks", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

// signToken builds raw HS256 tokens for the auth-gate tests.
func signToken(t *testing.T, secret string, uid uint, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":      uid,
		"username": "alice",
		"role":     models.RoleUser,
		"exp":      exp.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTaskLifecycleAndOwnership(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")
	bob := registerAndLogin(t, srv, "bob", "bob@x.com", "secret1")

	// Create with defaults.
	w := doJSON(t, srv, http.MethodPost, "/api/tasks", alice,
		gin.H{"title": "Buy milk", "dueDate": "2025-01-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode(t, w)["task"].(map[string]any)
	assert.Equal(t, "pending", task["status"])
	assert.Equal(t, "medium", task["priority"])
	taskID := fmt.Sprintf("%v", int(task["id"].(float64)))

	// Patch status.
	w = doJSON(t, srv, http.MethodPatch, "/api/tasks/"+taskID, alice,
		gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)["task"].(map[string]any)
	assert.Equal(t, "completed", updated["status"])

	// Bob's list does not contain alice's task.
	w = doJSON(t, srv, http.MethodGet, "/api/tasks", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bobTasks []any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bobTasks))
	assert.Empty(t, bobTasks)

	// Bob's update/delete attempts read as not-found, never forbidden.
	w = doJSON(t, srv, http.MethodPatch, "/api/tasks/"+taskID, bob, gin.H{"status": "pending"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, srv, http.MethodDelete, "/api/tasks/"+taskID, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Owner delete works exactly once.
	w = doJSON(t, srv, http.MethodDelete, "/api/tasks/"+taskID, alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, srv, http.MethodDelete, "/api/tasks/"+taskID, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskValidation(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	w := doJSON(t, srv, http.MethodPost, "/api/tasks", alice, gin.H{"title": "Buy milk"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing due date")

	w = doJSON(t, srv, http.MethodPost, "/api/tasks", alice,
		gin.H{"title": "Buy milk", "dueDate": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unparseable due date")

	w = doJSON(t, srv, http.MethodPatch, "/api/tasks/abc", alice, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "non-numeric id")

	w = doJSON(t, srv, http.MethodPost, "/api/tasks", alice,
		gin.H{"title": "Buy milk", "dueDate": "2025-01-01", "status": "done"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown status")
}

func TestProfileUpdate_IgnoresEmailAndRole(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	w := doJSON(t, srv, http.MethodPatch, "/api/user/profile", alice,
		gin.H{"bio": "hello", "email": "evil@x.com", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "hello", user["bio"])
	assert.Equal(t, "alice@x.com", user["email"], "email change must be ignored")
	assert.Equal(t, "user", user["role"], "role change must be ignored")
}

func TestPasswordUpdate(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	// Wrong current password: rejected, old password still valid.
	w := doJSON(t, srv, http.MethodPatch, "/api/user/password", alice,
		gin.H{"currentPassword": "wrong", "newPassword": "secret2"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "alice@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, w.Code, "old password must still work")

	// Successful rotation invalidates the old password for new logins.
	w = doJSON(t, srv, http.MethodPatch, "/api/user/password", alice,
		gin.H{"currentPassword": "secret1", "newPassword": "secret2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "alice@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "alice@x.com", "password": "secret2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTeamDirectory_OpenPolicy(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	// Any authenticated user may list members and add accounts, role included.
	w := doJSON(t, srv, http.MethodPost, "/api/team/members", alice,
		gin.H{"username": "carol", "email": "carol@x.com", "password": "secret1", "role": "admin"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "admin", user["role"])

	w = doJSON(t, srv, http.MethodPost, "/api/team/members", alice,
		gin.H{"username": "dave", "email": "dave@x.com", "password": "secret1", "role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown role")

	w = doJSON(t, srv, http.MethodGet, "/api/team/members", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0]["username"], "sorted by username")
	assert.Equal(t, "carol", members[1]["username"])
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestTeamDirectory_AdminOnlyPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Team.OpenManagement = false
	srv := newTestServer(t, cfg)

	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	w := doJSON(t, srv, http.MethodGet, "/api/team/members", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "regular user is locked out")

	// Promote via seed-equivalent path: create an admin directly.
	var user models.User
	require.NoError(t, srv.db.DB.Where("username = ?", "alice").First(&user).Error)
	require.NoError(t, srv.db.DB.Model(&user).Update("role", models.RoleAdmin).Error)

	admin := registerAndLoginExisting(t, srv, "alice@x.com", "secret1")
	w = doJSON(t, srv, http.MethodGet, "/api/team/members", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func registerAndLoginExisting(t *testing.T, srv *Server, email, password string) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	for _, status := range []string{"pending", "completed", "completed"} {
		w := doJSON(t, srv, http.MethodPost, "/api/tasks", alice,
			gin.H{"title": "task xx", "dueDate": "2030-01-01", "status": status})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, srv, http.MethodGet, "/api/stats", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]any)
	assert.EqualValues(t, 3, stats["total"])
	assert.EqualValues(t, 1, stats["pending"])
	assert.EqualValues(t, 2, stats["completed"])
}

func uploadAvatar(t *testing.T, srv *Server, token, filename string, content []byte) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/user/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	url, _ := decode(t, w)["avatarUrl"].(string)
	require.NotEmpty(t, url)
	return url
}

func getPath(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestAvatarUpload(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	url := uploadAvatar(t, srv, alice, "me.png", []byte("not-really-a-png"))
	assert.Contains(t, url, "avatars/user_")
}

func TestAvatarServing(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	// The default avatar every fresh account points at must actually exist.
	w := getPath(t, srv, models.DefaultAvatarURL)
	assert.Equal(t, http.StatusOK, w.Code, "placeholder avatar must be served")

	// An uploaded avatar is fetchable at the URL the upload returned.
	content := []byte("not-really-a-png")
	url := uploadAvatar(t, srv, alice, "me.png", content)
	w = getPath(t, srv, url)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, content, w.Body.Bytes())

	// No escaping the avatar directory.
	w = getPath(t, srv, "/avatars/../config.yaml")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = getPath(t, srv, "/avatars/user_999.png")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvatarReupload_RemovesStaleFile(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	alice := registerAndLogin(t, srv, "alice", "alice@x.com", "secret1")

	oldURL := uploadAvatar(t, srv, alice, "me.png", []byte("png-bytes"))
	newURL := uploadAvatar(t, srv, alice, "me.jpg", []byte("jpg-bytes"))
	require.NotEqual(t, oldURL, newURL)

	w := getPath(t, srv, newURL)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("jpg-bytes"), w.Body.Bytes())

	// The extension change orphaned the old key; it must be gone.
	w = getPath(t, srv, oldURL)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecovery_StackVisibility(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	srv.Router().GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := getPath(t, srv, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "kaboom", "development responses carry the panic")
	assert.Contains(t, w.Body.String(), "stack")

	cfg := testConfig(t)
	cfg.Server.Env = "production"
	prod := newTestServer(t, cfg)
	prod.Router().GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w = getPath(t, prod, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "kaboom", "production responses stay bare")
	assert.NotContains(t, w.Body.String(), "stack")
}
