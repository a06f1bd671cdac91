// Package webhooklog persists inbound processor notifications for forensic
// review. The wire response never says why a delivery was rejected; this log
// is where operators look instead.
package webhooklog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vkazarin/creditgate/app/models"
)

// EventInput is the normalized input for webhook event persistence.
type EventInput struct {
	Provider        string
	ProviderEventID string
	Phase           string
	PayloadForm     string
	SignatureValid  bool
}

// Service records and finalizes webhook events.
type Service struct {
	db *gorm.DB
}

// NewService creates a webhook log service from a GORM DB handle.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// eventKey normalizes the dedup key for one delivery. The provider name is
// case-insensitive; deliveries without a usable provider event id are keyed
// by a hash of the raw form body so each distinct payload stays recordable.
func eventKey(in EventInput) (provider, eventID string, err error) {
	provider = strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return "", "", errors.New("provider is required")
	}
	eventID = strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadForm))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}
	return provider, eventID, nil
}

// RecordEvent persists a webhook event idempotently: redelivered
// notifications with the same provider event id map onto the existing row.
func (s *Service) RecordEvent(in EventInput) (created bool, stored *models.PaymentWebhookEvent, err error) {
	provider, eventID, err := eventKey(in)
	if err != nil {
		return false, nil, err
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		Phase:           in.Phase,
		PayloadForm:     in.PayloadForm,
		SignatureValid:  in.SignatureValid,
	}

	tx := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created = tx.RowsAffected > 0
	var existing models.PaymentWebhookEvent
	if err := s.db.Where("provider = ? AND provider_event_id = ?", provider, eventID).
		First(&existing).Error; err != nil {
		return false, nil, err
	}
	return created, &existing, nil
}

// MarkProcessed finalizes an event with its outcome and an optional error.
func (s *Service) MarkProcessed(eventID uint, outcome string, processingErr error) error {
	if eventID == 0 {
		return errors.New("event id is required")
	}
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at": &now,
		"outcome":      outcome,
	}
	if processingErr != nil {
		updates["processing_error"] = processingErr.Error()
	}
	return s.db.Model(&models.PaymentWebhookEvent{}).
		Where("id = ?", eventID).
		Updates(updates).Error
}
