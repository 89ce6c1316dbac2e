package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/events"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

const streamBuffer = 64

// EventsHandler streams store changes to browsers with Server-Sent Events.
type EventsHandler struct {
	sources   []events.Source
	keepAlive time.Duration
	log       *slog.Logger
}

func NewEventsHandler(log *slog.Logger, keepAlive time.Duration, sources ...events.Source) *EventsHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &EventsHandler{sources: sources, keepAlive: keepAlive, log: logger.OrDefault(log)}
}

func (h *EventsHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/events", h.Stream)
}

// Stream subscribes to every source for the lifetime of the request. A client
// that falls more than streamBuffer events behind misses the overflow.
func (h *EventsHandler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	ch := make(chan events.Change, streamBuffer)
	for _, src := range h.sources {
		unsubscribe := src.Subscribe(func(ev events.Change) {
			select {
			case ch <- ev:
			default:
				h.log.Warn("dropping change for slow stream client", slog.String("store", ev.Store), slog.String("op", ev.Op))
			}
		})
		defer unsubscribe()
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprint(c.Writer, "event: ready\ndata: {}\n\n")
	flusher.Flush()

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "id: %s\nevent: change\ndata: %s\n\n", ev.ID, data)
			flusher.Flush()
		}
	}
}
