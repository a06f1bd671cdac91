package credits

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/vkazarin/creditgate/app/models"
)

// AuditSink receives best-effort audit entries after a balance was
// committed. Implementations must never block the crediting path; enqueue
// failures are logged and swallowed by the service.
type AuditSink interface {
	EnqueueCreditAudit(entry models.CreditTransaction) error
}

// CreditResult reports the outcome of one crediting attempt.
type CreditResult struct {
	AlreadyProcessed bool
	BalanceAfter     int64
}

// Service is the idempotent ledger writer: it turns a verified PAY
// notification into exactly one payment record and one balance increment per
// processor transaction id.
type Service struct {
	repo  Repository
	audit AuditSink
}

// NewService creates a crediting service from an injected repository and
// audit sink. The sink may be nil when no audit trail is wanted (tests).
func NewService(repo Repository, audit AuditSink) *Service {
	return &Service{repo: repo, audit: audit}
}

// NewServiceFromDB creates a crediting service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, audit AuditSink) *Service {
	return NewService(NewRepository(db), audit)
}

// Credit applies a resolved package purchase for the given processor
// transaction id. Redelivered notifications return AlreadyProcessed with no
// writes. A storage error is the one failure the caller should surface as a
// transport failure, because the processor's retry is then wanted.
func (s *Service) Credit(ctx context.Context, email string, pkg Package, transactionID, operationID string, testMode bool) (CreditResult, error) {
	_ = ctx
	if email == "" {
		return CreditResult{}, errors.New("purchaser email is required")
	}
	if transactionID == "" {
		return CreditResult{}, errors.New("transaction id is required")
	}

	// Fast path for redeliveries; the unique index below still covers the
	// race between this lookup and the insert.
	if existing, err := s.repo.FindCompletedPayment(transactionID); err == nil && existing != nil {
		return CreditResult{AlreadyProcessed: true}, nil
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return CreditResult{}, err
	}

	payment := &models.Payment{
		UserEmail:     email,
		AmountRub:     pkg.PriceRub,
		Credits:       pkg.Credits,
		PackageID:     pkg.ID,
		Status:        models.PaymentStatusCompleted,
		TransactionID: transactionID,
		OperationID:   operationID,
		TestMode:      testMode,
	}

	created, balanceAfter, err := s.repo.CreatePaymentAndCredit(payment)
	if err != nil {
		return CreditResult{}, err
	}
	if !created {
		return CreditResult{AlreadyProcessed: true}, nil
	}

	s.recordAudit(payment, balanceAfter)

	return CreditResult{AlreadyProcessed: false, BalanceAfter: balanceAfter}, nil
}

// recordAudit hands the audit entry to the sink. Failure is logged and
// swallowed: the balance is already committed and must not be affected.
func (s *Service) recordAudit(payment *models.Payment, balanceAfter int64) {
	if s.audit == nil {
		return
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"transaction_id": payment.TransactionID,
		"operation_id":   payment.OperationID,
		"package_id":     payment.PackageID,
		"amount_rub":     payment.AmountRub,
		"test_mode":      payment.TestMode,
	})
	if err != nil {
		log.Errorf("[Credits] Failed to marshal audit metadata for %s: %v", payment.TransactionID, err)
		return
	}

	entry := models.CreditTransaction{
		UserEmail:    payment.UserEmail,
		Delta:        payment.Credits,
		Reason:       models.CreditReasonPurchase,
		Metadata:     string(metadata),
		BalanceAfter: balanceAfter,
	}
	if err := s.audit.EnqueueCreditAudit(entry); err != nil {
		log.Errorf("[Credits] Failed to enqueue audit entry for %s: %v", payment.TransactionID, err)
	}
}

// RecentPayments lists the latest payments for the admin page.
func (s *Service) RecentPayments(limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.RecentPayments(limit)
}
