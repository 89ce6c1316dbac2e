package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/remote"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/service"
	sessiondomain "github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/middleware"
	sessionservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/service"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remoteProducts = `[
	{"id":1,"title":"Fjallraven Backpack","price":109.95,"description":"Your perfect pack","category":"men's clothing","image":"https://fakestoreapi.com/img/1.jpg"},
	{"id":5,"title":"Dragon Bracelet","price":695,"description":"From our Legends Collection","category":"jewelery","image":"https://fakestoreapi.com/img/5.jpg"}
]`

type fixture struct {
	router     *gin.Engine
	store      *service.CatalogStore
	listCalls  *int32
	adminToken string
	userToken  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var listCalls int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/products":
			atomic.AddInt32(&listCalls, 1)
			w.Write([]byte(remoteProducts))
		case r.Method == http.MethodGet && r.URL.Path == "/products/1":
			w.Write([]byte(`{"id":1,"title":"Fjallraven Backpack","price":109.95,"category":"men's clothing"}`))
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			var d map[string]any
			_ = json.NewDecoder(r.Body).Decode(&d)
			d["id"] = 21
			_ = json.NewEncoder(w).Encode(d)
		case r.Method == http.MethodPut:
			var d map[string]any
			_ = json.NewDecoder(r.Body).Decode(&d)
			d["id"] = 1
			_ = json.NewEncoder(w).Encode(d)
		case r.Method == http.MethodDelete:
			w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(api.Close)

	store := service.NewCatalogStore(context.Background(), service.Deps{
		Remote:    remote.NewClient(api.URL, remote.Options{}),
		Storage:   storage.NewMemoryBackend(),
		Scheduler: storage.Immediate{},
	})

	sessions := sessionservice.NewService("secret", time.Hour, sessionservice.Options{})
	adminToken, _, err := sessions.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	userToken, _, err := sessions.Login(context.Background(), "usuario", "usuario123")
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.Authenticate(sessions))
	New(store, nil).Register(r.Group("/api/v1"), middleware.RequireRole(sessiondomain.RoleAdmin))

	return &fixture{router: r, store: store, listCalls: &listCalls, adminToken: adminToken, userToken: userToken}
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

const validDraft = `{"title":"Wooden Train","price":25.5,"description":"Hand made wooden toy train","category":"toys","image":"https://example.com/train.png"}`

func TestLoadThenList(t *testing.T) {
	f := setup(t)

	rr := f.do(http.MethodPost, "/api/v1/products/load", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(http.MethodPost, "/api/v1/products/load", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.listCalls), "second load hits the cache")

	rr = f.do(http.MethodGet, "/api/v1/products?q=bracelet", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var state domain.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	require.Len(t, state.Products, 1)
	assert.Equal(t, 5, state.Products[0].ID)
}

func TestCategoriesMergeDefaults(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.LoadCatalog(context.Background()))

	rr := f.do(http.MethodGet, "/api/v1/products/categories", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, domain.DefaultCategories, body.Categories, "catalog categories are already in the default list")
}

func TestGetProduct(t *testing.T) {
	f := setup(t)

	rr := f.do(http.MethodGet, "/api/v1/products/1", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"source":"remote"`)

	rr = f.do(http.MethodGet, "/api/v1/products/77", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(http.MethodGet, "/api/v1/products/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetProduct_LocalFallback(t *testing.T) {
	f := setup(t)

	rr := f.do(http.MethodPost, "/api/v1/products", f.adminToken, validDraft)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(http.MethodGet, "/api/v1/products/21", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"source":"local"`)
}

func TestCreateProduct_Gating(t *testing.T) {
	f := setup(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/v1/products", "", validDraft).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/products", f.userToken, validDraft).Code)

	rr := f.do(http.MethodPost, "/api/v1/products", f.adminToken, validDraft)
	require.Equal(t, http.StatusCreated, rr.Code)

	var res domain.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Success)
	require.NotNil(t, res.Product)
	assert.Equal(t, 21, res.Product.ID)
	assert.Len(t, f.store.Products(), 1)
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	f := setup(t)

	rr := f.do(http.MethodPost, "/api/v1/products", f.adminToken,
		`{"title":"ab","price":0,"description":"Hand made wooden toy train","category":"toys","image":"https://example.com/train.png"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Success bool              `json:"success"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Errors, "title")
	assert.Contains(t, body.Errors, "price")

	rr = f.do(http.MethodPost, "/api/v1/products", f.adminToken, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.LoadCatalog(context.Background()))

	rr := f.do(http.MethodPut, "/api/v1/products/1", f.adminToken, validDraft)
	require.Equal(t, http.StatusOK, rr.Code)
	p, ok := f.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Wooden Train", p.Title)

	rr = f.do(http.MethodDelete, "/api/v1/products/1", f.adminToken, "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = f.do(http.MethodDelete, "/api/v1/products/1", f.adminToken, "")
	require.Equal(t, http.StatusOK, rr.Code, "repeat delete is a no-op success")

	_, ok = f.store.Get(1)
	assert.False(t, ok)
}

func TestResetRequiresAdmin(t *testing.T) {
	f := setup(t)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/products/reset", f.userToken, "").Code)

	rr := f.do(http.MethodPost, "/api/v1/products/reset", f.adminToken, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, f.store.Products(), 2)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&domain.ValidationError{Fields: map[string]string{"title": "x"}}))
	assert.Equal(t, http.StatusBadGateway, statusFor(&domain.RemoteError{Op: "x", Status: 500}))
	assert.Equal(t, http.StatusNotFound, statusFor(&domain.RemoteError{Op: "x", Status: 404, Err: domain.ErrProductNotFound}))
	assert.Equal(t, statusClientClosedRequest, statusFor(context.Canceled))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
}
