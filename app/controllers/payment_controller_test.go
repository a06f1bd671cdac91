package controllers

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vkazarin/creditgate/app/models"
	"github.com/vkazarin/creditgate/internal/pkg/credits"
	"github.com/vkazarin/creditgate/internal/pkg/payanyway"
	"github.com/vkazarin/creditgate/internal/pkg/webhooklog"
)

var testPayCfg = payanyway.Config{MerchantID: "M1", Secret: "S"}

type fakeLedger struct {
	payments  map[string]*models.Payment
	balances  map[string]int64
	failWrite error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		payments: make(map[string]*models.Payment),
		balances: make(map[string]int64),
	}
}

func (f *fakeLedger) FindCompletedPayment(transactionID string) (*models.Payment, error) {
	if p, ok := f.payments[transactionID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedger) CreatePaymentAndCredit(payment *models.Payment) (bool, int64, error) {
	if f.failWrite != nil {
		return false, 0, f.failWrite
	}
	if _, ok := f.payments[payment.TransactionID]; ok {
		return false, f.balances[payment.UserEmail], nil
	}
	stored := *payment
	f.payments[payment.TransactionID] = &stored
	f.balances[payment.UserEmail] += payment.Credits
	return true, f.balances[payment.UserEmail], nil
}

func (f *fakeLedger) CreateCreditTransaction(entry *models.CreditTransaction) error {
	return nil
}

func (f *fakeLedger) RecentPayments(limit int) ([]models.Payment, error) {
	out := make([]models.Payment, 0, len(f.payments))
	for _, p := range f.payments {
		out = append(out, *p)
	}
	return out, nil
}

type recordedEvent struct {
	input   webhooklog.EventInput
	outcome string
	err     string
}

type fakeEventLog struct {
	nextID uint
	byKey  map[string]uint
	events map[uint]*recordedEvent
}

func newFakeEventLog() *fakeEventLog {
	return &fakeEventLog{
		byKey:  make(map[string]uint),
		events: make(map[uint]*recordedEvent),
	}
}

func (f *fakeEventLog) RecordEvent(in webhooklog.EventInput) (bool, *models.PaymentWebhookEvent, error) {
	key := in.Provider + "|" + in.ProviderEventID
	if id, ok := f.byKey[key]; ok {
		return false, &models.PaymentWebhookEvent{ID: id, ProviderEventID: in.ProviderEventID}, nil
	}
	f.nextID++
	f.byKey[key] = f.nextID
	f.events[f.nextID] = &recordedEvent{input: in}
	return true, &models.PaymentWebhookEvent{ID: f.nextID, ProviderEventID: in.ProviderEventID}, nil
}

func (f *fakeEventLog) MarkProcessed(eventID uint, outcome string, processingErr error) error {
	ev, ok := f.events[eventID]
	if !ok {
		return nil
	}
	ev.outcome = outcome
	if processingErr != nil {
		ev.err = processingErr.Error()
	}
	return nil
}

type testHarness struct {
	app      *fiber.App
	ledger   *fakeLedger
	events   *fakeEventLog
	outcomes []string
	archived []uint
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	catalog, err := credits.NewCatalog([]credits.Package{
		{ID: "start", Name: "Start", PriceRub: 150, Credits: 60},
		{ID: "standard", Name: "Standard", PriceRub: 500, Credits: 250},
	})
	require.NoError(t, err)

	h := &testHarness{ledger: newFakeLedger(), events: newFakeEventLog()}
	svc := credits.NewService(h.ledger, nil)
	pc := NewPaymentController(testPayCfg, catalog, svc, h.events)
	pc.countOutcome = func(outcome string) { h.outcomes = append(h.outcomes, outcome) }
	pc.archiveEvent = func(eventID uint) { h.archived = append(h.archived, eventID) }

	h.app = fiber.New()
	h.app.Post("/payments/payanyway/notify", pc.HandleNotify)
	h.app.Post("/payments/payanyway/legacy", pc.HandleLegacyNotify)
	return h
}

// signedForm builds a wire body the way the processor does: values appear
// verbatim and the signature covers them in signing order.
func signedForm(fields map[string]string) string {
	sum := md5.Sum([]byte(fields[payanyway.FieldMerchantID] +
		fields[payanyway.FieldTransactionID] +
		fields[payanyway.FieldOperationID] +
		fields[payanyway.FieldAmount] +
		fields[payanyway.FieldCurrency] +
		fields[payanyway.FieldSubscriberID] +
		fields[payanyway.FieldTestMode] +
		testPayCfg.Secret))

	pairs := make([]string, 0, len(fields)+1)
	for _, key := range []string{
		payanyway.FieldMerchantID,
		payanyway.FieldTransactionID,
		payanyway.FieldOperationID,
		payanyway.FieldAmount,
		payanyway.FieldCurrency,
		payanyway.FieldSubscriberID,
		payanyway.FieldTestMode,
	} {
		if v, ok := fields[key]; ok {
			pairs = append(pairs, key+"="+v)
		}
	}
	pairs = append(pairs, payanyway.FieldSignature+"="+hex.EncodeToString(sum[:]))
	return strings.Join(pairs, "&")
}

func payFields() map[string]string {
	return map[string]string{
		payanyway.FieldMerchantID:    "M1",
		payanyway.FieldTransactionID: "T100",
		payanyway.FieldOperationID:   "OP-1",
		payanyway.FieldAmount:        "500.00",
		payanyway.FieldCurrency:      "RUB",
		payanyway.FieldSubscriberID:  "user@example.com",
		payanyway.FieldTestMode:      "0",
	}
}

func checkFields() map[string]string {
	f := payFields()
	delete(f, payanyway.FieldOperationID)
	return f
}

func (h *testHarness) post(t *testing.T, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestHandleNotifyCheckAnswersReceiptWithoutWrites(t *testing.T) {
	h := newHarness(t)

	status, body := h.post(t, "/payments/payanyway/notify", signedForm(checkFields()))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"MNT_RESULT_CODE":"402"`)
	assert.Contains(t, body, `"MNT_TRANSACTION_ID":"T100"`)
	assert.Contains(t, body, "Standard")
	assert.Contains(t, body, `"CUSTOMER":"user@example.com"`)

	assert.Empty(t, h.ledger.payments, "CHECK must not create ledger state")
	assert.Empty(t, h.ledger.balances)
	assert.Empty(t, h.events.events, "valid CHECK must not be persisted")
	assert.Equal(t, []string{models.WebhookOutcomeChecked}, h.outcomes)
}

func TestHandleNotifyPayCreditsExactlyOnce(t *testing.T) {
	h := newHarness(t)
	body := signedForm(payFields())

	status, resp := h.post(t, "/payments/payanyway/notify", body)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, resp, "<MNT_RESULT_CODE>200</MNT_RESULT_CODE>")
	assert.Contains(t, resp, "<KEY>INVENTORY</KEY>")
	assert.Equal(t, int64(250), h.ledger.balances["user@example.com"])
	require.Contains(t, h.ledger.payments, "T100")
	assert.Equal(t, "OP-1", h.ledger.payments["T100"].OperationID)

	// Redeliveries answer the same success envelope without a second credit.
	for i := 0; i < 3; i++ {
		status, resp = h.post(t, "/payments/payanyway/notify", body)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, resp, "<MNT_RESULT_CODE>200</MNT_RESULT_CODE>")
	}
	assert.Equal(t, int64(250), h.ledger.balances["user@example.com"])
	assert.Len(t, h.ledger.payments, 1)

	assert.Equal(t, []string{
		models.WebhookOutcomeCredited,
		models.WebhookOutcomeDuplicate,
		models.WebhookOutcomeDuplicate,
		models.WebhookOutcomeDuplicate,
	}, h.outcomes)
	require.Len(t, h.events.events, 1)
	assert.Equal(t, models.WebhookOutcomeDuplicate, h.events.events[1].outcome)
}

func TestHandleNotifyRejectsTamperedPay(t *testing.T) {
	h := newHarness(t)
	fields := payFields()
	form := signedForm(fields)
	form = strings.Replace(form, "MNT_AMOUNT=500.00", "MNT_AMOUNT=150.00", 1)

	status, resp := h.post(t, "/payments/payanyway/notify", form)

	assert.Equal(t, fiber.StatusOK, status, "business rejections must not trigger processor retries")
	assert.Contains(t, resp, "<MNT_RESULT_CODE>500</MNT_RESULT_CODE>")
	assert.NotContains(t, resp, "signature", "the response must not say why it failed")
	assert.Empty(t, h.ledger.payments)

	require.Len(t, h.events.events, 1)
	ev := h.events.events[1]
	assert.False(t, ev.input.SignatureValid)
	assert.Equal(t, models.WebhookOutcomeRejected, ev.outcome)
	assert.Equal(t, []string{models.WebhookOutcomeRejected}, h.outcomes)
}

func TestHandleNotifyCheckRejectionIsOpaqueJSON(t *testing.T) {
	h := newHarness(t)
	fields := checkFields()
	form := signedForm(fields) + "x" // corrupt the signature

	status, resp := h.post(t, "/payments/payanyway/notify", form)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, resp, `"MNT_RESULT_CODE":"500"`)
	assert.NotContains(t, resp, "MNT_ATTRIBUTES")
	assert.Empty(t, h.ledger.payments)
}

func TestHandleNotifyUnresolvableAmountRejected(t *testing.T) {
	h := newHarness(t)
	fields := payFields()
	fields[payanyway.FieldAmount] = "999.99"

	status, resp := h.post(t, "/payments/payanyway/notify", signedForm(fields))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, resp, "<MNT_RESULT_CODE>500</MNT_RESULT_CODE>")
	assert.Empty(t, h.ledger.payments)
	require.Len(t, h.events.events, 1)
	assert.True(t, h.events.events[1].input.SignatureValid, "the signature itself was valid")
}

func TestHandleNotifyMissingSubscriberRejected(t *testing.T) {
	h := newHarness(t)
	fields := payFields()
	fields[payanyway.FieldSubscriberID] = ""

	status, resp := h.post(t, "/payments/payanyway/notify", signedForm(fields))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, resp, "<MNT_RESULT_CODE>500</MNT_RESULT_CODE>")
	assert.Empty(t, h.ledger.payments)
}

func TestHandleNotifyStorageFailurePropagatesAs500(t *testing.T) {
	h := newHarness(t)
	h.ledger.failWrite = gorm.ErrInvalidTransaction

	status, _ := h.post(t, "/payments/payanyway/notify", signedForm(payFields()))

	assert.Equal(t, fiber.StatusInternalServerError, status, "the processor must retry an unapplied credit")
	require.Len(t, h.events.events, 1)
	assert.Equal(t, models.WebhookOutcomeFailed, h.events.events[1].outcome)
	assert.NotEmpty(t, h.events.events[1].err)
}

func TestHandleLegacyNotifySuccessAndFail(t *testing.T) {
	h := newHarness(t)

	status, body := h.post(t, "/payments/payanyway/legacy", signedForm(payFields()))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, payanyway.LegacySuccessBody, body)
	assert.Equal(t, int64(250), h.ledger.balances["user@example.com"])

	// Redelivery stays SUCCESS and does not double-credit.
	status, body = h.post(t, "/payments/payanyway/legacy", signedForm(payFields()))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, payanyway.LegacySuccessBody, body)
	assert.Equal(t, int64(250), h.ledger.balances["user@example.com"])

	// A tampered delivery answers FAIL with HTTP 200.
	form := strings.Replace(signedForm(payFields()), "T100", "T999", 1)
	status, body = h.post(t, "/payments/payanyway/legacy", form)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, payanyway.LegacyFailBody, body)
	assert.Equal(t, int64(250), h.ledger.balances["user@example.com"])
}

func TestHandleNotifyGarbageBodyRejected(t *testing.T) {
	h := newHarness(t)

	status, resp := h.post(t, "/payments/payanyway/notify", "not-a-form-at-all")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, resp, `"MNT_RESULT_CODE":"500"`)
	assert.Empty(t, h.ledger.payments)
}

func TestHandleNotifyArchivesCreditedEvents(t *testing.T) {
	h := newHarness(t)

	h.post(t, "/payments/payanyway/notify", signedForm(payFields()))

	assert.Equal(t, []uint{1}, h.archived)
}
