package payanyway

import (
	"errors"
	"strconv"
	"strings"
)

// Notification is the typed view of one decoded webhook delivery. The raw
// map stays with the verifier; everything after verification works on this
// struct so field coverage is checked at compile time.
type Notification struct {
	MerchantID    string
	TransactionID string
	OperationID   string
	HasOperation  bool
	Amount        string
	Currency      string
	SubscriberID  string
	TestMode      bool
}

// NotificationFromDecoded builds the typed notification from the decoded
// field map. Unknown fields are ignored.
func NotificationFromDecoded(decoded map[string]string) Notification {
	opID, hasOp := decoded[FieldOperationID]
	return Notification{
		MerchantID:    decoded[FieldMerchantID],
		TransactionID: decoded[FieldTransactionID],
		OperationID:   opID,
		HasOperation:  hasOp && opID != "",
		Amount:        decoded[FieldAmount],
		Currency:      decoded[FieldCurrency],
		SubscriberID:  strings.TrimSpace(decoded[FieldSubscriberID]),
		TestMode:      decoded[FieldTestMode] == "1",
	}
}

// Phase selects the protocol phase for this notification: the processor
// sends the operation id only once money has actually moved.
func (n Notification) Phase() Phase {
	if n.HasOperation {
		return PhasePay
	}
	return PhaseCheck
}

// ParseAmount parses the decimal amount string (major units, e.g. "500.00").
func (n Notification) ParseAmount() (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(n.Amount), 64)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, errors.New("amount must be positive")
	}
	return amount, nil
}

// EventID is the deduplication key for the forensic webhook log. PAY
// notifications are keyed by the processor's operation id; CHECK requests
// have none and are keyed per transaction and phase.
func (n Notification) EventID() string {
	if n.HasOperation {
		return "op:" + n.OperationID
	}
	if n.TransactionID == "" {
		return ""
	}
	return "check:" + n.TransactionID
}
