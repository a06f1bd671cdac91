package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/vkazarin/creditgate/app/models"
	"github.com/vkazarin/creditgate/internal/pkg/credits"
	"github.com/vkazarin/creditgate/internal/pkg/jobqueue"
	"github.com/vkazarin/creditgate/internal/pkg/metrics/counter"
	"github.com/vkazarin/creditgate/internal/pkg/payanyway"
	"github.com/vkazarin/creditgate/internal/pkg/webhooklog"
)

// EventLog records inbound webhook deliveries for forensic review.
type EventLog interface {
	RecordEvent(in webhooklog.EventInput) (created bool, stored *models.PaymentWebhookEvent, err error)
	MarkProcessed(eventID uint, outcome string, processingErr error) error
}

// PaymentController handles PayAnyWay payment notifications. The processor
// POSTs form-encoded MNT_* fields; responses follow its two-phase protocol
// (JSON for CHECK, an XML envelope for PAY) or the legacy bare-body variant.
type PaymentController struct {
	cfg     payanyway.Config
	catalog *credits.Catalog
	svc     *credits.Service
	events  EventLog

	// Seams for tests; both are best-effort side effects.
	countOutcome func(outcome string)
	archiveEvent func(eventID uint)
}

func NewPaymentController(cfg payanyway.Config, catalog *credits.Catalog, svc *credits.Service, events EventLog) *PaymentController {
	return &PaymentController{
		cfg:     cfg,
		catalog: catalog,
		svc:     svc,
		events:  events,
		countOutcome: func(outcome string) {
			if err := counter.AddWebhookOutcome(outcome); err != nil {
				log.Warnf("[Payments] outcome counter failed: %v", err)
			}
		},
		archiveEvent: func(eventID uint) {
			if _, err := jobqueue.GetManager().GetQueue().EnqueueWebhookArchiveJob(eventID); err != nil {
				log.Warnf("[Payments] archive enqueue failed for event %d: %v", eventID, err)
			}
		},
	}
}

// HandleNotify is the two-phase webhook endpoint. The phase is decided per
// request by the presence of MNT_OPERATION_ID: absent means CHECK (answer
// with receipt data, write nothing durable), present means PAY (credit the
// purchaser exactly once). Business rejections always answer HTTP 200 with
// an opaque failure body so the processor does not retry them; only storage
// failures surface as 5xx, because those retries are wanted.
func (pc *PaymentController) HandleNotify(c *fiber.Ctx) error {
	body := append([]byte(nil), c.BodyRaw()...)
	raw, decoded := payanyway.ParseForm(body)
	n := payanyway.NotificationFromDecoded(decoded)
	phase := n.Phase()

	if !payanyway.VerifyNotification(raw, pc.cfg) {
		return pc.reject(c, phase, n, body, decoded, false, "signature verification failed")
	}

	amount, err := n.ParseAmount()
	if err != nil {
		return pc.reject(c, phase, n, body, decoded, true, "unusable amount: "+err.Error())
	}
	pkg, ok := pc.catalog.Resolve(amount)
	if !ok {
		return pc.reject(c, phase, n, body, decoded, true, fmt.Sprintf("no package within tolerance of %s RUB", payanyway.FormatAmount(amount)))
	}
	if n.SubscriberID == "" {
		return pc.reject(c, phase, n, body, decoded, true, "missing subscriber id")
	}

	if phase == payanyway.PhaseCheck {
		pc.countOutcome(models.WebhookOutcomeChecked)
		log.Infof("[Payments] CHECK ok tx=%s amount=%s package=%s subscriber=%s", n.TransactionID, payanyway.FormatAmount(amount), pkg.ID, n.SubscriberID)
		return c.JSON(payanyway.BuildCheckResponse(pc.cfg, n.TransactionID, n.SubscriberID, pkg.Name, pkg.PriceRub))
	}

	_, stored, err := pc.events.RecordEvent(webhooklog.EventInput{
		Provider:        models.PaymentProviderPayAnyWay,
		ProviderEventID: n.EventID(),
		Phase:           string(phase),
		PayloadForm:     string(body),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("[Payments] webhook event persist failed tx=%s: %v", n.TransactionID, err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	result, err := pc.svc.Credit(c.UserContext(), n.SubscriberID, pkg, n.TransactionID, n.OperationID, n.TestMode)
	if err != nil {
		_ = pc.events.MarkProcessed(stored.ID, models.WebhookOutcomeFailed, err)
		pc.countOutcome(models.WebhookOutcomeFailed)
		log.Errorf("[Payments] credit failed tx=%s op=%s subscriber=%s: %v", n.TransactionID, n.OperationID, n.SubscriberID, err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	outcome := models.WebhookOutcomeCredited
	if result.AlreadyProcessed {
		outcome = models.WebhookOutcomeDuplicate
		log.Infof("[Payments] PAY duplicate tx=%s op=%s subscriber=%s", n.TransactionID, n.OperationID, n.SubscriberID)
	} else {
		log.Infof("[Payments] PAY credited tx=%s op=%s subscriber=%s credits=%d balance=%d", n.TransactionID, n.OperationID, n.SubscriberID, pkg.Credits, result.BalanceAfter)
	}
	_ = pc.events.MarkProcessed(stored.ID, outcome, nil)
	pc.countOutcome(outcome)
	pc.archiveEvent(stored.ID)

	resp, err := payanyway.BuildPaySuccess(pc.cfg, n.TransactionID, n.SubscriberID, pkg.Name, pkg.PriceRub)
	if err != nil {
		log.Errorf("[Payments] PAY response build failed tx=%s: %v", n.TransactionID, err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return sendXML(c, resp)
}

// HandleLegacyNotify serves wire variants that predate the CHECK/PAY split:
// the body is the same MNT_* form, but the processor only understands bare
// "SUCCESS" or "FAIL" bodies. FAIL still answers HTTP 200 - a non-200 makes
// the processor retry indefinitely, which is only wanted when the credit
// genuinely did not happen.
func (pc *PaymentController) HandleLegacyNotify(c *fiber.Ctx) error {
	body := append([]byte(nil), c.BodyRaw()...)
	raw, decoded := payanyway.ParseForm(body)
	n := payanyway.NotificationFromDecoded(decoded)

	fail := func(sigValid bool, reason string) error {
		pc.recordRejection(n, body, sigValid, reason)
		pc.countOutcome(models.WebhookOutcomeRejected)
		log.Warnf("[Payments] legacy rejected (%s) fields=%v", reason, decoded)
		return c.SendString(payanyway.LegacyFailBody)
	}

	if !payanyway.VerifyNotification(raw, pc.cfg) {
		return fail(false, "signature verification failed")
	}
	amount, err := n.ParseAmount()
	if err != nil {
		return fail(true, "unusable amount: "+err.Error())
	}
	pkg, ok := pc.catalog.Resolve(amount)
	if !ok {
		return fail(true, fmt.Sprintf("no package within tolerance of %s RUB", payanyway.FormatAmount(amount)))
	}
	if n.SubscriberID == "" {
		return fail(true, "missing subscriber id")
	}

	_, stored, err := pc.events.RecordEvent(webhooklog.EventInput{
		Provider:        models.PaymentProviderPayAnyWay,
		ProviderEventID: n.EventID(),
		Phase:           string(payanyway.PhasePay),
		PayloadForm:     string(body),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("[Payments] webhook event persist failed tx=%s: %v", n.TransactionID, err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	result, err := pc.svc.Credit(c.UserContext(), n.SubscriberID, pkg, n.TransactionID, n.OperationID, n.TestMode)
	if err != nil {
		_ = pc.events.MarkProcessed(stored.ID, models.WebhookOutcomeFailed, err)
		pc.countOutcome(models.WebhookOutcomeFailed)
		log.Errorf("[Payments] legacy credit failed tx=%s subscriber=%s: %v", n.TransactionID, n.SubscriberID, err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	outcome := models.WebhookOutcomeCredited
	if result.AlreadyProcessed {
		outcome = models.WebhookOutcomeDuplicate
	}
	_ = pc.events.MarkProcessed(stored.ID, outcome, nil)
	pc.countOutcome(outcome)
	pc.archiveEvent(stored.ID)
	log.Infof("[Payments] legacy %s tx=%s subscriber=%s", outcome, n.TransactionID, n.SubscriberID)
	return c.SendString(payanyway.LegacySuccessBody)
}

// reject answers a business rejection without revealing which check failed:
// CHECK gets the opaque JSON failure, PAY the opaque XML envelope, both with
// HTTP 200. The full field context (there is no secret among the fields) is
// logged and the delivery is kept in the forensic event log.
func (pc *PaymentController) reject(c *fiber.Ctx, phase payanyway.Phase, n payanyway.Notification, body []byte, decoded map[string]string, sigValid bool, reason string) error {
	log.Warnf("[Payments] %s rejected (%s) fields=%v", phase, reason, decoded)
	pc.recordRejection(n, body, sigValid, reason)
	pc.countOutcome(models.WebhookOutcomeRejected)

	if phase == payanyway.PhaseCheck {
		return c.JSON(payanyway.BuildCheckFailure(pc.cfg, n.TransactionID))
	}
	return sendXML(c, payanyway.BuildPayFailure(pc.cfg, n.TransactionID))
}

func (pc *PaymentController) recordRejection(n payanyway.Notification, body []byte, sigValid bool, reason string) {
	_, stored, err := pc.events.RecordEvent(webhooklog.EventInput{
		Provider:        models.PaymentProviderPayAnyWay,
		ProviderEventID: n.EventID(),
		Phase:           string(n.Phase()),
		PayloadForm:     string(body),
		SignatureValid:  sigValid,
	})
	if err != nil {
		log.Errorf("[Payments] rejection event persist failed: %v", err)
		return
	}
	_ = pc.events.MarkProcessed(stored.ID, models.WebhookOutcomeRejected, errors.New(reason))
}

func sendXML(c *fiber.Ctx, resp payanyway.PayResponse) error {
	encoded, err := resp.EncodeXML()
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.Send(encoded)
}
