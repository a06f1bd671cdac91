package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vkazarin/creditgate/internal/pkg/credits"
	"github.com/vkazarin/creditgate/internal/pkg/payanyway"
)

// Router installs a set of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies carries the configuration built once at startup. Routers
// construct their controllers from it plus the global DB and cache handles.
type Dependencies struct {
	PayConfig payanyway.Config
	Catalog   *credits.Catalog
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
