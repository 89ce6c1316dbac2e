package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is logged when the caller went away mid-request.
const statusClientClosedRequest = 499

type Store interface {
	State() domain.State
	Search(query string) []domain.Product
	Categories() []string
	Get(id int) (domain.Product, bool)
	FetchProduct(ctx context.Context, id int) (*domain.Product, error)
	LoadCatalog(ctx context.Context) error
	ResetToRemote(ctx context.Context) error
	Create(ctx context.Context, d domain.Draft) (domain.Result, error)
	Update(ctx context.Context, id int, d domain.Draft) (domain.Result, error)
	Delete(ctx context.Context, id int) (domain.Result, error)
}

type Handler struct {
	store Store
	log   *slog.Logger
}

func New(store Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: logger.OrDefault(log)}
}

// Register mounts the catalog routes. admin guards every mutating route.
func (h *Handler) Register(rg *gin.RouterGroup, admin ...gin.HandlerFunc) {
	rg.GET("/products", h.List)
	rg.GET("/products/categories", h.Categories)
	rg.GET("/products/:id", h.Get)
	rg.POST("/products/load", h.Load)

	guarded := rg.Group("", admin...)
	guarded.POST("/products", h.Create)
	guarded.PUT("/products/:id", h.Update)
	guarded.DELETE("/products/:id", h.Delete)
	guarded.POST("/products/reset", h.Reset)
}

func (h *Handler) List(c *gin.Context) {
	state := h.store.State()
	if q := c.Query("q"); q != "" {
		state.Products = h.store.Search(q)
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) Categories(c *gin.Context) {
	seen := map[string]bool{}
	var out []string
	for _, list := range [][]string{domain.DefaultCategories, h.store.Categories()} {
		for _, cat := range list {
			if !seen[cat] {
				seen[cat] = true
				out = append(out, cat)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// Get fetches the product detail from the remote API. Products that only
// exist locally fall back to the catalog copy.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, err := h.store.FetchProduct(c.Request.Context(), id)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"product": p, "source": "remote"})
		return
	}

	if errors.Is(err, domain.ErrProductNotFound) {
		if local, found := h.store.Get(id); found {
			c.JSON(http.StatusOK, gin.H{"product": local, "source": "local"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	h.writeError(c, err)
}

func (h *Handler) Load(c *gin.Context) {
	if err := h.store.LoadCatalog(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.State())
}

func (h *Handler) Reset(c *gin.Context) {
	if err := h.store.ResetToRemote(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.store.State())
}

func (h *Handler) Create(c *gin.Context) {
	var draft domain.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	res, err := h.store.Create(c.Request.Context(), draft)
	if err != nil {
		h.writeFailure(c, res, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var draft domain.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	res, err := h.store.Update(c.Request.Context(), id, draft)
	if err != nil {
		h.writeFailure(c, res, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	res, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		h.writeFailure(c, res, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) writeFailure(c *gin.Context, res domain.Result, err error) {
	status := statusFor(err)
	if status == statusClientClosedRequest {
		c.AbortWithStatus(status)
		return
	}

	body := gin.H{"success": false, "message": res.Message}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body["errors"] = verr.Fields
	}
	c.JSON(status, body)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == statusClientClosedRequest {
		c.AbortWithStatus(status)
		return
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("catalog request failed", slog.String("path", c.FullPath()), slog.Any("err", err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var rerr *domain.RemoteError
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &rerr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}
