// Package payanyway implements the PayAnyWay (MONETA.Assistant) webhook
// protocol: form decoding with signature-safe raw values, MD5 notification
// verification, the two-phase CHECK/PAY response formats and the legacy
// SUCCESS/FAIL bodies.
package payanyway

import (
	"errors"

	"github.com/vkazarin/creditgate/internal/pkg/env"
)

// Wire field names as sent by the processor.
const (
	FieldMerchantID    = "MNT_ID"
	FieldTransactionID = "MNT_TRANSACTION_ID"
	FieldOperationID   = "MNT_OPERATION_ID"
	FieldAmount        = "MNT_AMOUNT"
	FieldCurrency      = "MNT_CURRENCY_CODE"
	FieldSubscriberID  = "MNT_SUBSCRIBER_ID"
	FieldTestMode      = "MNT_TEST_MODE"
	FieldSignature     = "MNT_SIGNATURE"
)

// Result codes of the Assistant protocol.
const (
	ResultCodeOrderReady = "402" // CHECK: order known, ready to be paid
	ResultCodePaid       = "200" // PAY: payment accepted and credited
	ResultCodeFailure    = "500" // PAY: payment not accepted
)

// Legacy single-phase response bodies. Always sent with HTTP 200: the
// processor retries on any non-200, and a business rejection must not
// trigger a retry storm.
const (
	LegacySuccessBody = "SUCCESS"
	LegacyFailBody    = "FAIL"
)

// Phase classifies one notification. There is no state carried between
// webhook calls; the phase is decided per request from the presence of the
// operation id.
type Phase string

const (
	PhaseCheck Phase = "CHECK"
	PhasePay   Phase = "PAY"
)

// Config carries the merchant credentials. It is built once at startup and
// passed into constructors; no component reads the environment directly.
type Config struct {
	MerchantID string
	Secret     string
}

// LoadConfig reads merchant credentials from the environment. Both values
// are mandatory: webhook processing must hard-fail rather than verify
// against a default secret.
func LoadConfig() (Config, error) {
	cfg := Config{
		MerchantID: env.GetEnv("PAYANYWAY_MNT_ID", ""),
		Secret:     env.GetEnv("PAYANYWAY_SECRET", ""),
	}
	if cfg.MerchantID == "" {
		return Config{}, errors.New("PAYANYWAY_MNT_ID is required")
	}
	if cfg.Secret == "" {
		return Config{}, errors.New("PAYANYWAY_SECRET is required")
	}
	return cfg, nil
}
