package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project_waBot/internal/entities"
	"project_waBot/internal/plugins"
	"project_waBot/internal/repository"
)

func newTestRouter(t *testing.T) (*gin.Engine, *repository.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := repository.NewStore(repository.Options{
		Path:          filepath.Join(dir, "database.json"),
		BackupDir:     filepath.Join(dir, "backups"),
		MaxLimit:      50,
		ResetInterval: 24 * time.Hour,
	})
	require.NoError(t, err)

	registry := plugins.NewRegistry(dir, nil, nil)
	handler, err := NewHandler(store, registry, "hunter2", "test-secret")
	require.NoError(t, err)

	r := gin.New()
	SetupRoutes(r, handler, NewMiddleware("test-secret"))
	return r, store
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStatsRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStats(t *testing.T) {
	r, store := newTestRouter(t)
	_, _, err := store.GetUser("628111", "")
	require.NoError(t, err)
	_, err = store.UpdateUser("628222", func(u *entities.User) { u.Banned = true })
	require.NoError(t, err)

	token := login(t, r)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats["users"])
	assert.Equal(t, 1, stats["banned"])
}

func TestBanEndpoint(t *testing.T) {
	r, store := newTestRouter(t)
	token := login(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users/628111/ban", strings.NewReader(`{"banned":true}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	user, _, err := store.GetUser("628111", "")
	require.NoError(t, err)
	assert.True(t, user.Banned)
}

func TestSetSettingEndpoint(t *testing.T) {
	r, store := newTestRouter(t)
	token := login(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/settings", strings.NewReader(`{"key":"maxLimit","value":75}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 75, store.Settings().MaxLimit)
}

func TestBackupEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	token := login(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/backup", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backup-")
}
