package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Storage   string    `json:"storage"`
	Backend   string    `json:"backend,omitempty"`
}

// Pinger is satisfied by every storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	serviceName string
	version     string
	backendName string
	storage     Pinger
}

func NewHealthHandler(serviceName, version, backendName string, storage Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		backendName: backendName,
		storage:     storage,
	}
}

// HealthCheck always answers 200: a storage outage degrades persistence but
// the stores keep serving from memory.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	storageStatus := "disabled"
	if h.storage != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.storage.Ping(pingCtx); err != nil {
			storageStatus = "down"
			status = "degraded"
		} else {
			storageStatus = "up"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Storage:   storageStatus,
		Backend:   h.backendName,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
