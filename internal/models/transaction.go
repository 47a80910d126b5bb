package models

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	TransactionTypeTopUp          = "top-up"
	TransactionTypeOpeningBalance = "opening-balance"
)

// Transaction is an immutable ledger entry. Amount already includes any bonus.
type Transaction struct {
	ID            uint      `gorm:"primarykey"`
	CreatedAt     time.Time `gorm:"column:date;precision:3;index"` // Millisecond precision
	UserID        uint      `gorm:"index;not null"`
	Type          string    `gorm:"type:varchar(100);index;not null"`
	Description   string    `gorm:"type:text"`
	Amount        float64   `gorm:"type:decimal(12,2);not null"`
	Bonus         float64   `gorm:"type:decimal(12,2);not null;default:0"`
	BalanceBefore float64   `gorm:"type:decimal(12,2);not null"`
	BalanceAfter  float64   `gorm:"type:decimal(12,2);not null"`
	BookedByID    uint      `gorm:"index;not null"`
	Hash          string    `gorm:"type:varchar(64);default:''"` // HMAC SHA256
}

// GenerateHash generates a tamper-proof hash for the transaction.
// Free-text fields are quoted so a separator inside them cannot shift field boundaries.
func (t *Transaction) GenerateHash(secret string) string {
	data := fmt.Sprintf("%d|%d|%.2f|%.2f|%.2f|%.2f|%q|%q|%d",
		t.UserID, t.CreatedAt.UnixMilli(), t.Amount, t.Bonus, t.BalanceBefore, t.BalanceAfter,
		t.Type, t.Description, t.BookedByID)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
