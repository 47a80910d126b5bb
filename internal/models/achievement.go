package models

import "time"

// Achievement records one completed instance of a training requirement.
// IsConsumed only ever moves from false to true, during a level promotion.
type Achievement struct {
	ID            uint      `gorm:"primarykey"`
	UserID        uint      `gorm:"index;not null"`
	RequirementID string    `gorm:"type:varchar(64);index;not null"`
	DateAchieved  time.Time `gorm:"index;not null"`
	IsConsumed    bool      `gorm:"index;not null;default:false"`
	TransactionID *uint     `gorm:"index"`
}
