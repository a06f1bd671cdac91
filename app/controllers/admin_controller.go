package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/vkazarin/creditgate/internal/pkg/credits"
	"github.com/vkazarin/creditgate/internal/pkg/jobqueue"
	"github.com/vkazarin/creditgate/internal/pkg/metrics/counter"
)

// AdminController renders the operator pages behind basic auth.
type AdminController struct {
	svc *credits.Service
}

func NewAdminController(svc *credits.Service) *AdminController {
	return &AdminController{svc: svc}
}

// HandlePaymentsPage shows the most recent payments together with the
// webhook outcome counters and queue stats.
func (ac *AdminController) HandlePaymentsPage(c *fiber.Ctx) error {
	payments, err := ac.svc.RecentPayments(50)
	if err != nil {
		log.Errorf("[Admin] loading recent payments failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load payments")
	}

	outcomes, err := counter.WebhookOutcomes()
	if err != nil {
		log.Warnf("[Admin] loading outcome counters failed: %v", err)
		outcomes = map[string]int64{}
	}

	var queueStats map[jobqueue.JobStatus]int64
	if mgr := jobqueue.GetManager(); mgr.IsRunning() {
		if stats, err := mgr.GetQueue().GetJobStats(c.UserContext()); err == nil {
			queueStats = stats
		}
	}

	return c.Render("admin/payments", fiber.Map{
		"Payments":   payments,
		"Outcomes":   outcomes,
		"QueueStats": queueStats,
	})
}

// HandleResetCounters clears the webhook outcome counters.
func (ac *AdminController) HandleResetCounters(c *fiber.Ctx) error {
	if err := counter.Reset(); err != nil {
		log.Errorf("[Admin] resetting counters failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reset_failed"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
