package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notesync/internal/server/jwt"
	"github.com/iudanet/notesync/internal/server/storage/sqlite"
	"github.com/iudanet/notesync/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthTestHandler(t *testing.T) (*AuthHandler, *sqlite.Storage) {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens := jwt.NewService(jwt.Config{
		Secret:          []byte("test-secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})

	return NewAuthHandler(testLogger(), store, store, tokens), store
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	return rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	rec := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice",
		Password: "password123",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp api.RegisterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.UserID)
}

func TestAuthHandler_Register_InvalidUsername(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	rec := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "a!",
		Password: "password123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Register_WeakPassword(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	rec := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice",
		Password: "short",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Register_DuplicateUsername(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	first := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice",
		Password: "otherpassword",
	})
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	rec := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, handler.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "alice",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Positive(t, resp.ExpiresIn)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	rec := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, handler.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "alice",
		Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Login_UnknownUser(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	rec := postJSON(t, handler.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "nobody",
		Password: "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Refresh_RotatesToken(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	rec := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, handler.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "alice",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login api.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+login.RefreshToken)
	refreshRec := httptest.NewRecorder()
	handler.Refresh(refreshRec, req)

	require.Equal(t, http.StatusOK, refreshRec.Code)

	var refreshed api.TokenResponse
	require.NoError(t, json.Unmarshal(refreshRec.Body.Bytes(), &refreshed))
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Старый refresh token больше не работает
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+login.RefreshToken)
	reusedRec := httptest.NewRecorder()
	handler.Refresh(reusedRec, req)

	assert.Equal(t, http.StatusUnauthorized, reusedRec.Code)
}

func TestAuthHandler_Refresh_MissingHeader(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	rec := httptest.NewRecorder()
	handler.Refresh(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Logout_InvalidatesRefreshTokens(t *testing.T) {
	handler, _ := newAuthTestHandler(t)

	rec := postJSON(t, handler.Register, "/api/v1/auth/register", api.RegisterRequest{
		Username: "alice",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, handler.Login, "/api/v1/auth/login", api.LoginRequest{
		Username: "alice",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login api.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	logoutRec := httptest.NewRecorder()
	handler.Logout(logoutRec, req)

	require.Equal(t, http.StatusNoContent, logoutRec.Code)

	// Refresh после logout невозможен
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+login.RefreshToken)
	refreshRec := httptest.NewRecorder()
	handler.Refresh(refreshRec, req)

	assert.Equal(t, http.StatusUnauthorized, refreshRec.Code)
}
