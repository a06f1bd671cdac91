package models

import "time"

// Credit transaction reasons.
const (
	CreditReasonPurchase = "purchase"
)

// CreditTransaction is the append-only audit trail of balance changes. It is
// written best-effort after the balance itself has been committed; a missing
// audit row never invalidates a credited balance.
type CreditTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserEmail    string    `gorm:"type:varchar(200);not null;index" json:"user_email"`
	Delta        int64     `gorm:"not null" json:"delta"`
	Reason       string    `gorm:"type:varchar(50);not null;index" json:"reason"`
	Metadata     string    `gorm:"type:text" json:"metadata"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
