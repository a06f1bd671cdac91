package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeCreditAudit    JobType = "credit_audit"
	JobTypeWebhookArchive JobType = "webhook_archive"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// MarkAsProcessing flags the job as picked up by a worker.
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.ProcessedAt = &now
	j.UpdatedAt = now
}

// MarkAsCompleted flags the job as finished successfully.
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed records the failure message.
func (j *Job) MarkAsFailed(msg string) {
	j.Status = JobStatusFailed
	j.ErrorMsg = msg
	j.UpdatedAt = time.Now()
}

// MarkAsRetrying increments the retry counter.
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.RetryCount++
	j.UpdatedAt = time.Now()
}

// IsRetryable reports whether the job may be retried.
func (j *Job) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries
}

// CreditAuditJobPayload carries one audit ledger entry. The balance it
// documents is already committed; this job only appends the trail row.
type CreditAuditJobPayload struct {
	UserEmail    string `json:"user_email"`
	Delta        int64  `json:"delta"`
	Reason       string `json:"reason"`
	Metadata     string `json:"metadata"`
	BalanceAfter int64  `json:"balance_after"`
}

// ToMap converts the payload to a map for storage
func (p CreditAuditJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"user_email":    p.UserEmail,
		"delta":         p.Delta,
		"reason":        p.Reason,
		"metadata":      p.Metadata,
		"balance_after": p.BalanceAfter,
	}
}

// CreditAuditJobPayloadFromMap creates a payload from a map
func CreditAuditJobPayloadFromMap(data map[string]interface{}) (*CreditAuditJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload CreditAuditJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// WebhookArchiveJobPayload identifies one processed webhook event to upload
// to cold storage.
type WebhookArchiveJobPayload struct {
	EventID uint `json:"event_id"`
}

// ToMap converts the payload to a map for storage
func (p WebhookArchiveJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"event_id": p.EventID,
	}
}

// WebhookArchiveJobPayloadFromMap creates a payload from a map
func WebhookArchiveJobPayloadFromMap(data map[string]interface{}) (*WebhookArchiveJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload WebhookArchiveJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}
