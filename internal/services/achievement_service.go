package services

import (
	"time"

	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"

	"gorm.io/gorm"
)

// CreateAchievement records one unconsumed achievement. Existing achievements for the
// same requirement are not looked at: every call adds a row.
func CreateAchievement(db *gorm.DB, userID uint, requirementID string, transactionID *uint) (*models.Achievement, error) {
	achievement := &models.Achievement{
		UserID:        userID,
		RequirementID: requirementID,
		DateAchieved:  time.Now(),
		TransactionID: transactionID,
	}
	if err := db.Create(achievement).Error; err != nil {
		return nil, err
	}
	return achievement, nil
}

// FindAchievements lists a user's achievements, oldest first.
func FindAchievements(userID uint, onlyUnconsumed bool) ([]models.Achievement, error) {
	var achievements []models.Achievement
	query := database.DB.Where("user_id = ?", userID)
	if onlyUnconsumed {
		query = query.Where("is_consumed = ?", false)
	}
	if err := query.Order("date_achieved asc, id asc").Find(&achievements).Error; err != nil {
		return nil, err
	}
	return achievements, nil
}
