package bootstrap

import (
	"log/slog"
	"time"

	httpapi "github.com/GoSim-25-26J-441/go-storefront-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/api/http/middleware"
	carthttp "github.com/GoSim-25-26J-441/go-storefront-backend/internal/cart/http"
	cartservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/cart/service"
	cataloghttp "github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/http"
	catalogservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/service"
	sessiondomain "github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/domain"
	sessionhttp "github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/http"
	sessionmw "github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/middleware"
	sessionservice "github.com/GoSim-25-26J-441/go-storefront-backend/internal/session/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Logger      *slog.Logger

	StorageName string
	Storage     httpapi.Pinger

	AllowedOrigins []string
	KeepAlive      time.Duration

	Catalog *catalogservice.CatalogStore
	Cart    *cartservice.CartStore
	Session *sessionservice.Service
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.StorageName, dep.Storage)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(sessionmw.Authenticate(dep.Session))

	sessionhttp.New(dep.Session).Register(api)

	cataloghttp.New(dep.Catalog, dep.Logger).
		Register(api, sessionmw.RequireRole(sessiondomain.RoleAdmin))

	carthttp.New(dep.Cart, dep.Catalog, sessionmw.ContextGate{}, dep.Logger).
		Register(api, sessionmw.RequireAuth())

	httpapi.NewEventsHandler(dep.Logger, dep.KeepAlive, dep.Catalog, dep.Cart).Register(api)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-Id", "X-Session-Expired"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// cors.New panics on an empty origin list.
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}
