package http

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/cart/domain"
	catalogdomain "github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/middleware"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

type Store interface {
	AddItem(p domain.Snapshot, quantity int) (domain.LineItem, error)
	Increment(id int) bool
	Decrement(id int) bool
	Remove(id int) bool
	Clear()
	Summary() domain.Summary
}

// Catalog resolves product ids to the record the cart snapshots.
type Catalog interface {
	Get(id int) (catalogdomain.Product, bool)
}

type Handler struct {
	store   Store
	catalog Catalog
	gate    middleware.Gate
	log     *slog.Logger
}

func New(store Store, catalog Catalog, gate middleware.Gate, log *slog.Logger) *Handler {
	if gate == nil {
		gate = middleware.ContextGate{}
	}
	return &Handler{store: store, catalog: catalog, gate: gate, log: logger.OrDefault(log)}
}

// Register mounts the cart routes; auth guards every mutation.
func (h *Handler) Register(rg *gin.RouterGroup, auth ...gin.HandlerFunc) {
	rg.GET("/cart", h.Get)

	guarded := rg.Group("", auth...)
	guarded.POST("/cart/items", h.Add)
	guarded.POST("/cart/items/:id/increment", h.Increment)
	guarded.POST("/cart/items/:id/decrement", h.Decrement)
	guarded.DELETE("/cart/items/:id", h.Remove)
	guarded.DELETE("/cart", h.Clear)
}

func (h *Handler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Summary())
}

type addRequest struct {
	ProductID int `json:"product_id" binding:"required"`
	// Quantity is loosely typed: anything that is not a positive number
	// counts as 1.
	Quantity any `json:"quantity"`
}

func (h *Handler) Add(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "product_id is required"})
		return
	}

	p, ok := h.catalog.Get(req.ProductID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "product not found"})
		return
	}

	line, err := h.store.AddItem(domain.Snapshot{
		ID:    p.ID,
		Title: p.Title,
		Price: p.Price,
		Image: p.Image,
	}, parseQuantity(req.Quantity))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidProduct) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}

	if u := h.gate.CurrentUser(c); u != nil {
		h.log.Info("added to cart", slog.String("username", u.Username), slog.Int("product_id", p.ID), slog.Int("quantity", line.Quantity))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "product added to cart",
		"item":    line,
		"cart":    h.store.Summary(),
	})
}

func (h *Handler) Increment(c *gin.Context) {
	h.adjust(c, h.store.Increment)
}

func (h *Handler) Decrement(c *gin.Context) {
	h.adjust(c, h.store.Decrement)
}

func (h *Handler) adjust(c *gin.Context, fn func(int) bool) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !fn(id) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": domain.ErrItemNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": h.store.Summary()})
}

func (h *Handler) Remove(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	removed := h.store.Remove(id)
	c.JSON(http.StatusOK, gin.H{"success": true, "removed": removed, "cart": h.store.Summary()})
}

func (h *Handler) Clear(c *gin.Context) {
	h.store.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "cart emptied", "cart": h.store.Summary()})
}

func parseQuantity(v any) int {
	switch q := v.(type) {
	case float64:
		if math.IsNaN(q) || q < 1 || q > math.MaxInt32 {
			return 1
		}
		return int(q)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil || n < 1 || n > math.MaxInt32 {
			return 1
		}
		return n
	default:
		return 1
	}
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid product id"})
		return 0, false
	}
	return id, true
}
