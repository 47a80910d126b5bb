package transaction

import (
	"time"

	"pfotencard-backend/internal/models"
)

type BookTransactionRequest struct {
	UserID        uint     `json:"user_id" binding:"required"`
	Type          string   `json:"type" binding:"required,max=100"`
	Description   string   `json:"description"`
	Amount        *float64 `json:"amount" binding:"required"`
	RequirementID *string  `json:"requirement_id,omitempty" binding:"omitempty,max=100"`
}

type TransactionResponse struct {
	ID            uint      `json:"id"`
	Date          time.Time `json:"date"`
	UserID        uint      `json:"user_id"`
	Type          string    `json:"type"`
	Description   string    `json:"description"`
	Amount        float64   `json:"amount"`
	Bonus         float64   `json:"bonus"`
	BalanceBefore float64   `json:"balance_before"`
	BalanceAfter  float64   `json:"balance_after"`
	BookedByID    uint      `json:"booked_by_id"`
	Hash          string    `json:"hash"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

func NewTransactionResponse(t models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Date:          t.CreatedAt,
		UserID:        t.UserID,
		Type:          t.Type,
		Description:   t.Description,
		Amount:        t.Amount,
		Bonus:         t.Bonus,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		BookedByID:    t.BookedByID,
		Hash:          t.Hash,
	}
}

func NewTransactionResponses(list []models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, NewTransactionResponse(t))
	}
	return out
}
