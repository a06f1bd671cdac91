package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/vkazarin/creditgate/app/controllers"
	"github.com/vkazarin/creditgate/internal/pkg/credits"
	"github.com/vkazarin/creditgate/internal/pkg/database"
	"github.com/vkazarin/creditgate/internal/pkg/env"
	"github.com/vkazarin/creditgate/internal/pkg/jobqueue"
	"github.com/vkazarin/creditgate/internal/pkg/webhooklog"
)

type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	db := database.GetDB()
	svc := credits.NewServiceFromDB(db, jobqueue.GetManager().GetQueue())
	events := webhooklog.NewService(db)

	pc := controllers.NewPaymentController(h.deps.PayConfig, h.deps.Catalog, svc, events)

	// Webhook endpoints of the payment processor. The two-phase endpoint is
	// the canonical one; the legacy endpoint serves merchant accounts still
	// configured for the bare SUCCESS/FAIL contract.
	app.Post("/payments/payanyway/notify", pc.HandleNotify)
	app.Post("/payments/payanyway/legacy", pc.HandleLegacyNotify)

	app.Get("/health", controllers.HandleHealth)

	adminGroup := app.Group("/admin", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("ADMIN_USER", "admin"): env.GetEnv("ADMIN_PASSWORD", "admin"),
		},
	}))
	ac := controllers.NewAdminController(svc)
	adminGroup.Get("/payments", ac.HandlePaymentsPage)
	adminGroup.Post("/counters/reset", ac.HandleResetCounters)
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
