package authservice_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	authservice "github.com/coursetutor/backend/httpapi/auth"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/auth/authtest"
	"github.com/coursetutor/backend/internal/config"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/gauth"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/testhelper"
	"github.com/coursetutor/backend/internal/useraccount"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStates map[string][]byte

func (m memoryStates) New(_ context.Context, data []byte) (string, error) {
	m["state"] = data
	return "state", nil
}

func (m memoryStates) Use(_ context.Context, token string) ([]byte, error) {
	data, ok := m[token]
	if !ok {
		return nil, gauth.ErrBadState
	}
	delete(m, token)
	return data, nil
}

func setupRouter(t *testing.T, flow *gauth.Flow) (*gin.Engine, *authtest.MemoryStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := testhelper.NewStore(t)
	storage := authtest.NewMemoryStorage()
	ua := useraccount.NewContext(s, storage, events.NewEventService(s))
	cfg := config.BackendConfig{Auth: config.AuthConfig{TokenTTL: time.Hour}}

	router := gin.New()
	router.Use(httputils.MachineMiddleware(), auth.Middleware(storage))
	authservice.NewAuthService(ua, cfg, flow).Register(router.Group("/api"))

	return router, storage
}

func doJSON(router http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func register(t *testing.T, router http.Handler, email string) authservice.TokenResponse {
	t.Helper()

	rr := doJSON(router, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"name":     "Learner",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp authservice.TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestRegister(t *testing.T) {
	router, storage := setupRouter(t, nil)

	t.Run("success", func(t *testing.T) {
		rr := doJSON(router, http.MethodPost, "/api/auth/register", map[string]string{
			"email":    "alice@example.com",
			"name":     "Alice",
			"password": "password123",
		}, "")
		require.Equal(t, http.StatusCreated, rr.Code)

		var resp authservice.TokenResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "alice@example.com", resp.User.Email)
		assert.NotContains(t, rr.Body.String(), "password")

		info, err := storage.Peek(context.Background(), resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "test-agent", info.Machine)
		assert.Equal(t, "register", info.Meta["initiate_from_flow"])

		cookies := rr.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, auth.CookieAuthToken, cookies[0].Name)
		assert.Equal(t, resp.Token, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("validation", func(t *testing.T) {
		rr := doJSON(router, http.MethodPost, "/api/auth/register", map[string]string{}, "")
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var body struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "validation failed", body.Error)
		assert.Equal(t, "Email is required", body.Fields["email"])
		assert.Equal(t, "Name is required", body.Fields["name"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		rr := doJSON(router, http.MethodPost, "/api/auth/register", map[string]string{
			"email":    "ALICE@example.com",
			"name":     "Alice again",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLogin(t *testing.T) {
	router, _ := setupRouter(t, nil)
	register(t, router, "bob@example.com")

	t.Run("success", func(t *testing.T) {
		rr := doJSON(router, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "bob@example.com",
			"password": "password123",
		}, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var resp authservice.TokenResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := doJSON(router, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "bob@example.com",
			"password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rr := doJSON(router, http.MethodPost, "/api/auth/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := doJSON(router, http.MethodPost, "/api/auth/login", map[string]string{}, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestMe(t *testing.T) {
	router, _ := setupRouter(t, nil)
	resp := register(t, router, "carol@example.com")

	t.Run("anonymous", func(t *testing.T) {
		rr := doJSON(router, http.MethodGet, "/api/auth/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		rr := doJSON(router, http.MethodGet, "/api/auth/me", nil, "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("logged in", func(t *testing.T) {
		rr := doJSON(router, http.MethodGet, "/api/auth/me", nil, resp.Token)
		require.Equal(t, http.StatusOK, rr.Code)

		var me authservice.MeResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
		assert.Equal(t, "carol@example.com", me.User.Email)
		assert.Equal(t, useraccount.RoleStudent, me.User.Role)
		assert.Contains(t, me.Scopes, "course:write")
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieAuthToken, Value: resp.Token})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestLogout(t *testing.T) {
	router, storage := setupRouter(t, nil)
	resp := register(t, router, "dave@example.com")

	rr := doJSON(router, http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(router, http.MethodPost, "/api/auth/logout", nil, resp.Token)
	assert.Equal(t, http.StatusResetContent, rr.Code)

	_, err := storage.Peek(context.Background(), resp.Token)
	require.ErrorIs(t, err, auth.ErrNotFound)

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)

	rr = doJSON(router, http.MethodGet, "/api/auth/me", nil, resp.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGoogleRoutes(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		router, _ := setupRouter(t, nil)

		rr := doJSON(router, http.MethodGet, "/api/auth/google/login", nil, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("configured", func(t *testing.T) {
		oauthConfig := gauth.BuildOAuthConfig(config.GAuthConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
		}, "https://api.example.com/api/auth/google/callback")
		flow := gauth.NewFlow(oauthConfig, memoryStates{}, []string{"https://app.example.com/"})
		router, _ := setupRouter(t, flow)

		rr := doJSON(router, http.MethodGet, "/api/auth/google/login?redirect_uri="+url.QueryEscape("https://app.example.com/"), nil, "")
		require.Equal(t, http.StatusFound, rr.Code)
		assert.Contains(t, rr.Header().Get("Location"), "accounts.google.com")

		rr = doJSON(router, http.MethodGet, "/api/auth/google/callback?state=unknown&code=abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = doJSON(router, http.MethodGet, "/api/auth/google/callback?state=state", nil, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
