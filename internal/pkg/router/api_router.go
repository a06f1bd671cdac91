package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	cachemw "github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/vkazarin/creditgate/app/controllers"
	"github.com/vkazarin/creditgate/internal/pkg/cache"
	"github.com/vkazarin/creditgate/internal/pkg/env"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// The catalog is static for the process lifetime, so responses are
	// cached in Redis and shared across instances.
	packagesCtl := controllers.NewAPIPackageController(h.deps.Catalog)
	v1.Get("/packages", cachemw.New(cachemw.Config{
		Storage:    newResponseCacheStorage(),
		Expiration: 5 * time.Minute,
	}), packagesCtl.HandleListPackages)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}

// newResponseCacheStorage builds a fiber storage on the same Redis instance
// the cache client talks to, using database 1 (the cache itself uses DB 0).
func newResponseCacheStorage() *redisstorage.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}
	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
	})
}
