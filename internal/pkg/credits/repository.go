package credits

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vkazarin/creditgate/app/models"
)

// Repository provides the DB operations used by the crediting service.
type Repository interface {
	FindCompletedPayment(transactionID string) (*models.Payment, error)
	CreatePaymentAndCredit(payment *models.Payment) (created bool, balanceAfter int64, err error)
	CreateCreditTransaction(entry *models.CreditTransaction) error
	RecentPayments(limit int) ([]models.Payment, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a credits repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindCompletedPayment(transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.
		Where("transaction_id = ? AND status = ?", transactionID, models.PaymentStatusCompleted).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreatePaymentAndCredit inserts the payment record and credits the
// purchaser's balance in one atomic transaction. The unique index on
// transaction_id is the idempotency guard: when a concurrent or retried
// delivery already inserted the record, the insert affects zero rows and the
// whole unit is a no-op. The balance row is created on first purchase and
// incremented afterwards; a first real payment also ends the trial.
func (r *gormRepository) CreatePaymentAndCredit(payment *models.Payment) (bool, int64, error) {
	var created bool
	var balanceAfter int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		}).Create(payment)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent delivery won the insert; nothing to credit.
			created = false
			return nil
		}
		created = true

		now := time.Now()
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"credit_balance": gorm.Expr("credit_balance + ?", payment.Credits),
				"is_trial":       false,
				"last_paid_at":   now,
				"updated_at":     now,
			}),
		}).Create(&models.User{
			Email:         payment.UserEmail,
			CreditBalance: payment.Credits,
			IsTrial:       false,
			LastPaidAt:    &now,
		}).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.Where("email = ?", payment.UserEmail).First(&user).Error; err != nil {
			return err
		}
		balanceAfter = user.CreditBalance
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return created, balanceAfter, nil
}

func (r *gormRepository) CreateCreditTransaction(entry *models.CreditTransaction) error {
	return r.db.Create(entry).Error
}

func (r *gormRepository) RecentPayments(limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Order("created_at DESC").Limit(limit).Find(&payments).Error
	return payments, err
}
