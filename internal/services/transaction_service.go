package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"pfotencard-backend/config"
	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type bonusTier struct {
	threshold decimal.Decimal
	bonus     decimal.Decimal
}

// bonusTiers is ordered from the highest threshold down; the first match wins.
var bonusTiers = []bonusTier{
	{threshold: decimal.NewFromInt(300), bonus: decimal.NewFromInt(150)},
	{threshold: decimal.NewFromInt(150), bonus: decimal.NewFromInt(30)},
	{threshold: decimal.NewFromInt(100), bonus: decimal.NewFromInt(15)},
	{threshold: decimal.NewFromInt(50), bonus: decimal.NewFromInt(5)},
}

func bonusFor(amount decimal.Decimal) decimal.Decimal {
	for _, tier := range bonusTiers {
		if amount.GreaterThanOrEqual(tier.threshold) {
			return tier.bonus
		}
	}
	return decimal.Zero
}

// moneyAmount converts an amount to decimal, rejecting fractions of a cent.
func moneyAmount(amount float64) (decimal.Decimal, error) {
	d := decimal.NewFromFloat(amount)
	if !d.Equal(d.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("%w: amount %s has more than two decimal places", ErrValidation, d)
	}
	return d, nil
}

// CalculateBonus returns the top-up bonus for the given amount.
func CalculateBonus(amount float64) float64 {
	return bonusFor(decimal.NewFromFloat(amount)).InexactFloat64()
}

// BookingRequest describes a balance change booked by staff.
type BookingRequest struct {
	UserID        uint
	Type          string
	Description   string
	Amount        float64
	RequirementID *string
	BookedByID    uint
}

// BookTransaction applies the bonus schedule, moves the user's balance, writes the
// ledger row and, when a requirement is given, records one new achievement. All of
// it commits or rolls back together; the user row is locked for the duration.
func BookTransaction(req BookingRequest) (*models.Transaction, error) {
	amount, err := moneyAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	var booked *models.Transaction

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		t, err := appendLedgerEntry(tx, &user, req.Type, req.Description, amount, bonusFor(amount), req.BookedByID)
		if err != nil {
			return err
		}

		if req.RequirementID != nil && *req.RequirementID != "" {
			if _, err := CreateAchievement(tx, user.ID, *req.RequirementID, &t.ID); err != nil {
				return err
			}
		}

		booked = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateUserCache(req.UserID)

	logger.Log.Info("transaction booked",
		zap.Uint("transaction_id", booked.ID),
		zap.Uint("user_id", booked.UserID),
		zap.String("type", booked.Type),
		zap.Float64("amount", booked.Amount),
		zap.Float64("bonus", booked.Bonus),
		zap.Float64("balance_after", booked.BalanceAfter),
		zap.Uint("booked_by", booked.BookedByID),
	)

	return booked, nil
}

// appendLedgerEntry adds amount+bonus to the (already locked) user's balance and
// inserts the matching ledger row. It must run inside a database transaction.
func appendLedgerEntry(tx *gorm.DB, user *models.User, kind, description string, amount, bonus decimal.Decimal, bookedByID uint) (*models.Transaction, error) {
	totalChange := amount.Add(bonus)
	before := decimal.NewFromFloat(user.Balance).Round(2)
	after := before.Add(totalChange)

	if err := tx.Model(user).Update("balance", after.InexactFloat64()).Error; err != nil {
		return nil, err
	}

	t := &models.Transaction{
		CreatedAt:     time.Now().Truncate(time.Millisecond),
		UserID:        user.ID,
		Type:          kind,
		Description:   description,
		Amount:        totalChange.InexactFloat64(),
		Bonus:         bonus.InexactFloat64(),
		BalanceBefore: before.InexactFloat64(),
		BalanceAfter:  after.InexactFloat64(),
		BookedByID:    bookedByID,
	}
	t.Hash = t.GenerateHash(ledgerSecret())

	if err := tx.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func ledgerSecret() string {
	cfg, _ := config.LoadConfig()
	if cfg != nil && cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	return "default-secret"
}

// TransactionFilter defines criteria for filtering transactions
type TransactionFilter struct {
	UserID     *uint
	BookedByID *uint
	Type       *string
	StartTime  *time.Time
	EndTime    *time.Time
	MinAmount  *float64
	MaxAmount  *float64
	Page       int
	Limit      int
}

// FindTransactions retrieves a paginated list of transactions, newest first.
func FindTransactions(filter TransactionFilter) ([]models.Transaction, int64, error) {
	var transactions []models.Transaction
	var total int64

	query := database.DB.Model(&models.Transaction{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.BookedByID != nil {
		query = query.Where("booked_by_id = ?", *filter.BookedByID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.StartTime != nil {
		query = query.Where("date >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("date <= ?", *filter.EndTime)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("date desc, id desc").Limit(filter.Limit).Offset(offset).Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// GenerateTransactionCSV generates a CSV file content for transactions
func GenerateTransactionCSV(transactions []models.Transaction) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{
		"ID", "Date", "User ID", "Type", "Description", "Amount", "Bonus",
		"Balance Before", "Balance After", "Booked By", "Hash",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, t := range transactions {
		record := []string{
			fmt.Sprintf("%d", t.ID),
			t.CreatedAt.Format(time.RFC3339),
			fmt.Sprintf("%d", t.UserID),
			t.Type,
			t.Description,
			fmt.Sprintf("%.2f", t.Amount),
			fmt.Sprintf("%.2f", t.Bonus),
			fmt.Sprintf("%.2f", t.BalanceBefore),
			fmt.Sprintf("%.2f", t.BalanceAfter),
			fmt.Sprintf("%d", t.BookedByID),
			t.Hash,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// LedgerReport is the outcome of replaying a user's ledger.
type LedgerReport struct {
	UserID        uint     `json:"user_id"`
	Entries       int      `json:"entries"`
	LedgerBalance float64  `json:"ledger_balance"`
	StoredBalance float64  `json:"stored_balance"`
	Consistent    bool     `json:"consistent"`
	Problems      []string `json:"problems,omitempty"`
}

// VerifyLedger recomputes the balance strictly from the user's transactions and
// checks the running chain, each row's seal and the stored balance against it.
func VerifyLedger(userID uint) (*LedgerReport, error) {
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var entries []models.Transaction
	if err := database.DB.Where("user_id = ?", userID).Order("id asc").Find(&entries).Error; err != nil {
		return nil, err
	}

	secret := ledgerSecret()
	running := decimal.Zero
	var problems []string

	for _, t := range entries {
		before := decimal.NewFromFloat(t.BalanceBefore).Round(2)
		after := decimal.NewFromFloat(t.BalanceAfter).Round(2)
		amount := decimal.NewFromFloat(t.Amount).Round(2)

		if !before.Equal(running) {
			problems = append(problems, fmt.Sprintf("transaction %d: balance_before %s, expected %s", t.ID, before, running))
		}
		running = running.Add(amount)
		if !after.Equal(running) {
			problems = append(problems, fmt.Sprintf("transaction %d: balance_after %s, expected %s", t.ID, after, running))
		}
		if t.Hash != t.GenerateHash(secret) {
			problems = append(problems, fmt.Sprintf("transaction %d: hash mismatch", t.ID))
		}
	}

	stored := decimal.NewFromFloat(user.Balance).Round(2)
	if !stored.Equal(running) {
		problems = append(problems, fmt.Sprintf("stored balance %s, ledger says %s", stored, running))
	}

	report := &LedgerReport{
		UserID:        userID,
		Entries:       len(entries),
		LedgerBalance: running.InexactFloat64(),
		StoredBalance: user.Balance,
		Consistent:    len(problems) == 0,
		Problems:      problems,
	}
	if !report.Consistent {
		logger.Log.Warn("ledger inconsistency", zap.Uint("user_id", userID), zap.String("problems", strings.Join(problems, "; ")))
	}
	return report, nil
}
