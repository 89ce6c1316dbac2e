package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cartservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/cart/service"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/remote"
	catalogservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/service"
	sessionservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/service"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/money"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(api.Close)

	backend := storage.NewMemoryBackend()
	storage.NewCollection[domain.Product](backend, storage.KeyCatalog, nil).Save(ctx, []domain.Product{
		{ID: 1, Title: "Backpack", Price: money.MustParse("109.95"), Description: "fits 15 inch laptops", Category: "men's clothing", Image: "https://example.com/1.jpg"},
	})

	catalog := catalogservice.NewCatalogStore(ctx, catalogservice.Deps{
		Remote:    remote.NewClient(api.URL, remote.Options{}),
		Storage:   backend,
		Scheduler: storage.Immediate{},
	})
	cart := cartservice.NewCartStore(ctx, cartservice.Deps{Storage: backend, Scheduler: storage.Immediate{}})
	session := sessionservice.NewService("test-secret", time.Hour, sessionservice.Options{Backend: backend})

	return BuildRouter(RouterDeps{
		ServiceName:    "storefront-test",
		Version:        "test",
		StorageName:    "memory",
		Storage:        backend,
		AllowedOrigins: origins,
		KeepAlive:      time.Second,
		Catalog:        catalog,
		Cart:           cart,
		Session:        session,
	})
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	rr := do(r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestRouterHealthAndRequestID(t *testing.T) {
	r := newTestRouter(t, []string{"http://localhost:5173"})

	rr := do(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
	assert.Contains(t, rr.Body.String(), `"storage":"up"`)
}

func TestRouterCORSPreflight(t *testing.T) {
	r := newTestRouter(t, []string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterCORSAllowsAllWhenUnconfigured(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://anywhere.test")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterCatalogMutationsRequireAdmin(t *testing.T) {
	r := newTestRouter(t, nil)
	draft := map[string]any{
		"title":       "Desk Lamp",
		"price":       24.5,
		"description": "warm light for late nights",
		"category":    "home",
		"image":       "https://example.com/lamp.jpg",
	}

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/v1/products", "", draft).Code)

	user := login(t, r, "usuario", "usuario123")
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, "/api/v1/products/1", user, nil).Code)

	rr := do(r, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Backpack")
}

func TestRouterCartFlow(t *testing.T) {
	r := newTestRouter(t, nil)

	assert.Equal(t, http.StatusUnauthorized,
		do(r, http.MethodPost, "/api/v1/cart/items", "", map[string]any{"product_id": 1}).Code)

	token := login(t, r, "usuario", "usuario123")
	rr := do(r, http.MethodPost, "/api/v1/cart/items", token, map[string]any{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(r, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var summary struct {
		Count int     `json:"count"`
		Total float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 219.9, summary.Total, 0.0001)

	me := do(r, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"username":"usuario"`)
}

func TestSetGinMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	SetGinMode("production")
	assert.Equal(t, gin.ReleaseMode, gin.Mode())

	SetGinMode("development")
	assert.Equal(t, gin.DebugMode, gin.Mode())

	SetGinMode("test")
	assert.Equal(t, gin.TestMode, gin.Mode())
}
