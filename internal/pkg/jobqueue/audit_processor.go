package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/vkazarin/creditgate/app/models"
	"github.com/vkazarin/creditgate/internal/pkg/credits"
	"github.com/vkazarin/creditgate/internal/pkg/database"
)

// EnqueueCreditAudit implements the crediting service's audit sink: the
// entry is queued and written by a worker, so audit persistence can never
// slow down or fail a webhook response.
func (q *Queue) EnqueueCreditAudit(entry models.CreditTransaction) error {
	payload := CreditAuditJobPayload{
		UserEmail:    entry.UserEmail,
		Delta:        entry.Delta,
		Reason:       entry.Reason,
		Metadata:     entry.Metadata,
		BalanceAfter: entry.BalanceAfter,
	}
	_, err := q.EnqueueJob(JobTypeCreditAudit, payload.ToMap())
	return err
}

// processCreditAuditJob appends one audit trail row.
func (q *Queue) processCreditAuditJob(ctx context.Context, job *Job) error {
	_ = ctx
	payload, perr := CreditAuditJobPayloadFromMap(job.Payload)
	if perr != nil {
		return fmt.Errorf("failed to parse credit audit payload: %w", perr)
	}
	if payload.UserEmail == "" || payload.Delta == 0 {
		return fmt.Errorf("credit audit payload incomplete: %+v", payload)
	}

	entry := models.CreditTransaction{
		UserEmail:    payload.UserEmail,
		Delta:        payload.Delta,
		Reason:       payload.Reason,
		Metadata:     payload.Metadata,
		BalanceAfter: payload.BalanceAfter,
	}
	repo := credits.NewRepository(database.GetDB())
	if err := repo.CreateCreditTransaction(&entry); err != nil {
		return fmt.Errorf("failed to store credit audit entry: %w", err)
	}

	log.Infof("[CreditAuditJob] Recorded %+d credits for %s (balance %d)", payload.Delta, payload.UserEmail, payload.BalanceAfter)
	return nil
}
