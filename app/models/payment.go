package models

import "time"

// Payment status values. The crediting path only ever writes completed
// payments; there is no pending state because the processor notifies us
// after funds are captured.
const (
	PaymentStatusCompleted = "completed"
)

// Payment is the append-only record of one credited top-up. TransactionID is
// the processor-assigned operation identifier; its unique index is the sole
// idempotency guard against webhook redelivery.
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserEmail     string    `gorm:"type:varchar(200);not null;index" json:"user_email"`
	AmountRub     float64   `gorm:"type:decimal(10,2);not null" json:"amount_rub"`
	Credits       int64     `gorm:"not null" json:"credits"`
	PackageID     string    `gorm:"type:varchar(50);not null" json:"package_id"`
	Status        string    `gorm:"type:varchar(20);not null;default:'completed';index" json:"status"`
	TransactionID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_transaction_id" json:"transaction_id"`
	OperationID   string    `gorm:"type:varchar(191);not null;default:''" json:"operation_id"`
	TestMode      bool      `gorm:"not null;default:false" json:"test_mode"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
