package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/vkazarin/creditgate/app/models"
	"github.com/vkazarin/creditgate/internal/pkg/database"
	"github.com/vkazarin/creditgate/internal/pkg/s3archive"
)

// EnqueueWebhookArchiveJob enqueues the cold-storage upload of a processed
// webhook event.
func (q *Queue) EnqueueWebhookArchiveJob(eventID uint) (*Job, error) {
	payload := WebhookArchiveJobPayload{EventID: eventID}
	return q.EnqueueJob(JobTypeWebhookArchive, payload.ToMap())
}

// processWebhookArchiveJob uploads one webhook event to S3 and stamps it as
// archived. When archival is disabled the job completes as a no-op.
func (q *Queue) processWebhookArchiveJob(ctx context.Context, job *Job) error {
	payload, perr := WebhookArchiveJobPayloadFromMap(job.Payload)
	if perr != nil {
		return fmt.Errorf("failed to parse webhook archive payload: %w", perr)
	}

	cfg, err := s3archive.LoadConfig()
	if err != nil {
		return fmt.Errorf("archive config invalid: %w", err)
	}
	if !cfg.IsEnabled() {
		log.Debugf("[WebhookArchiveJob] Archival disabled, skipping event %d", payload.EventID)
		return nil
	}

	db := database.GetDB()
	var event models.PaymentWebhookEvent
	if err := db.First(&event, payload.EventID).Error; err != nil {
		return fmt.Errorf("webhook event %d not found: %w", payload.EventID, err)
	}
	if event.ArchivedAt != nil {
		log.Infof("[WebhookArchiveJob] Event %d already archived", event.ID)
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize webhook event %d: %w", event.ID, err)
	}

	client, err := s3archive.NewClient(cfg)
	if err != nil {
		return err
	}

	objectKey := cfg.GetObjectKey(event.Provider, event.ID, event.CreatedAt)
	if err := client.UploadPayload(ctx, objectKey, body); err != nil {
		return err
	}

	now := time.Now()
	if err := db.Model(&models.PaymentWebhookEvent{}).
		Where("id = ?", event.ID).
		Update("archived_at", &now).Error; err != nil {
		return fmt.Errorf("failed to stamp archived_at for event %d: %w", event.ID, err)
	}

	return nil
}
