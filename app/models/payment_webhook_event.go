package models

import "time"

// Payment provider constants used across payment-related models.
const (
	PaymentProviderPayAnyWay = "payanyway"
)

// Webhook processing outcomes recorded for forensics.
const (
	WebhookOutcomeChecked   = "checked"
	WebhookOutcomeCredited  = "credited"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeRejected  = "rejected"
	WebhookOutcomeFailed    = "failed"
)

// PaymentWebhookEvent stores every inbound processor notification with its
// raw form body and verification verdict. Rejections respond with an opaque
// failure on the wire; this table is where the real reason lives.
type PaymentWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_payment_webhook_events_provider_event,unique,priority:1;index" json:"provider"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;default:'';index:ux_payment_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	Phase           string     `gorm:"type:varchar(20);not null;index" json:"phase"`
	PayloadForm     string     `gorm:"type:longtext;not null" json:"payload_form"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	Outcome         string     `gorm:"type:varchar(20);not null;default:'';index" json:"outcome"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	ArchivedAt      *time.Time `gorm:"type:timestamp;default:null" json:"archived_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
