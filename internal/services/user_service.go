package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const userCacheTTL = time.Hour

func userCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func invalidateUserCache(userID uint) {
	if database.RedisClient != nil {
		database.RedisClient.Del(database.Ctx, userCacheKey(userID))
	}
}

// FindUserByID loads the bare user row, served from Redis when cached.
func FindUserByID(userID uint) (models.User, error) {
	cacheKey := userCacheKey(userID)
	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(database.Ctx, cacheKey).Result()
		if err == nil {
			var user models.User
			if err := json.Unmarshal([]byte(val), &user); err == nil {
				return user, nil
			}
		}
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}

	if database.RedisClient != nil {
		if data, err := json.Marshal(user); err == nil {
			database.RedisClient.Set(database.Ctx, cacheKey, data, userCacheTTL)
		}
	}

	return user, nil
}

func FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := database.DB.Where("LOWER(email) = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserDetails loads a user together with everything it owns.
func GetUserDetails(userID uint) (*models.User, error) {
	var user models.User
	err := database.DB.
		Preload("Dogs", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("date desc, id desc") }).
		Preload("Achievements", func(db *gorm.DB) *gorm.DB { return db.Order("date_achieved asc, id asc") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("upload_date desc") }).
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUsers retrieves a paginated list of users ordered by name.
func FindUsers(page, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	offset := (page - 1) * limit

	if err := database.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := database.DB.Order("name asc, id asc").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// SearchUsers returns users whose name contains term.
func SearchUsers(term string) ([]models.User, error) {
	var users []models.User
	if err := database.DB.Where("name LIKE ?", "%"+term+"%").Order("name asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

type DogInput struct {
	Name      string
	Breed     string
	BirthDate *time.Time
	Chip      string
}

type CreateUserInput struct {
	Email          string
	Name           string
	Phone          string
	Role           models.Role
	IsActive       bool
	Password       string
	LevelID        int
	OpeningBalance float64
	Dogs           []DogInput
}

// CreateUser stores a new account with its dogs. A missing password is replaced by a
// random one; an opening balance is written to the ledger, booked by createdByID.
func CreateUser(input CreateUserInput, createdByID uint) (*models.User, error) {
	opening, err := moneyAmount(input.OpeningBalance)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	if _, err := FindUserByEmail(email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	password := input.Password
	if password == "" {
		generated, err := randomPassword()
		if err != nil {
			return nil, err
		}
		password = generated
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = models.RoleCustomer
	}
	level := input.LevelID
	if level < 1 {
		level = 1
	}

	user := &models.User{
		TenantID:       models.DefaultTenantID,
		Email:          email,
		Name:           input.Name,
		Phone:          input.Phone,
		HashedPassword: string(hashedPassword),
		Role:           role,
		IsActive:       input.IsActive,
		LevelID:        level,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		for _, d := range input.Dogs {
			if _, err := createDog(tx, user.ID, d); err != nil {
				return err
			}
		}
		if !opening.IsZero() {
			by := createdByID
			if by == 0 {
				by = user.ID
			}
			if _, err := appendLedgerEntry(tx, user, models.TransactionTypeOpeningBalance, "Opening balance", opening, decimal.Zero, by); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("user created", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))

	return GetUserDetails(user.ID)
}

type UpdateUserInput struct {
	Email    *string
	Name     *string
	Phone    *string
	Password *string
	Role     *models.Role
	IsActive *bool
}

// UpdateUser applies a profile update on behalf of actor. Staff may edit anyone,
// customers only themselves and only name, phone and password. Changing the email
// address is reserved to admins. Changes to email, password or name are mirrored to
// the identity provider after the local commit; failures there are logged only.
func UpdateUser(ctx context.Context, userID uint, input UpdateUserInput, actor models.User, idp IdentityProvider) (*models.User, error) {
	isSelf := actor.ID == userID
	if !actor.Role.IsStaff() && !isSelf {
		return nil, ErrForbidden
	}
	if input.Password != nil && len(*input.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	var previousEmail string
	var sync IdentityUpdate

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		previousEmail = user.Email

		updates := map[string]interface{}{}

		if input.Email != nil {
			email := normalizeEmail(*input.Email)
			if email != normalizeEmail(user.Email) {
				if actor.Role != models.RoleAdmin {
					return fmt.Errorf("%w: only administrators may change email addresses", ErrForbidden)
				}
				var clash int64
				if err := tx.Model(&models.User{}).Where("LOWER(email) = ? AND id <> ?", email, userID).Count(&clash).Error; err != nil {
					return err
				}
				if clash > 0 {
					return ErrUserAlreadyExists
				}
				updates["email"] = email
				sync.Email = &email
			}
		}
		if input.Name != nil && *input.Name != user.Name {
			updates["name"] = *input.Name
			sync.Name = input.Name
		}
		if input.Phone != nil {
			updates["phone"] = *input.Phone
		}
		if input.Password != nil {
			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			updates["hashed_password"] = string(hashedPassword)
			sync.Password = input.Password
		}

		// Customers editing themselves cannot touch role or activation.
		if actor.Role.IsStaff() {
			if input.Role != nil {
				updates["role"] = *input.Role
			}
			if input.IsActive != nil {
				updates["is_active"] = *input.IsActive
			}
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	invalidateUserCache(userID)

	if !sync.IsEmpty() && idp != nil {
		if err := idp.UpdateUser(ctx, previousEmail, sync); err != nil {
			logger.Log.Warn("identity provider update failed",
				zap.Uint("user_id", userID), zap.String("email", previousEmail), zap.Error(err))
		}
	}

	return GetUserDetails(userID)
}

type StatusUpdate struct {
	IsVIP    *bool
	IsExpert *bool
	IsActive *bool
}

// UpdateUserStatus changes the VIP, expert and active flags. Setting VIP clears
// expert and vice versa; asking for both at once is rejected.
func UpdateUserStatus(userID uint, status StatusUpdate) (*models.User, error) {
	if status.IsVIP != nil && status.IsExpert != nil && *status.IsVIP && *status.IsExpert {
		return nil, fmt.Errorf("%w: a user cannot be VIP and expert at the same time", ErrValidation)
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if status.IsVIP != nil {
			user.SetVIP(*status.IsVIP)
		}
		if status.IsExpert != nil {
			user.SetExpert(*status.IsExpert)
		}
		if status.IsActive != nil {
			user.IsActive = *status.IsActive
		}

		return tx.Model(&user).Select("is_vip", "is_expert", "is_active").Updates(&user).Error
	})
	if err != nil {
		return nil, err
	}

	invalidateUserCache(userID)
	return GetUserDetails(userID)
}

func SetVIPStatus(userID uint, isVIP bool) (*models.User, error) {
	return UpdateUserStatus(userID, StatusUpdate{IsVIP: &isVIP})
}

func SetExpertStatus(userID uint, isExpert bool) (*models.User, error) {
	return UpdateUserStatus(userID, StatusUpdate{IsExpert: &isExpert})
}

// DeleteUser removes the user and everything it owns. The identity provider account
// and stored document objects are removed best effort after the local commit.
func DeleteUser(ctx context.Context, userID uint, idp IdentityProvider, store ObjectStore) error {
	var user models.User
	var documentPaths []string

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if err := tx.Model(&models.Document{}).Where("user_id = ?", userID).Pluck("file_path", &documentPaths).Error; err != nil {
			return err
		}

		for _, owned := range []interface{}{&models.Achievement{}, &models.Transaction{}, &models.Dog{}, &models.Document{}} {
			column := "user_id"
			if _, ok := owned.(*models.Dog); ok {
				column = "owner_id"
			}
			if err := tx.Where(column+" = ?", userID).Delete(owned).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		return err
	}

	invalidateUserCache(userID)
	logger.Log.Info("user deleted", zap.Uint("user_id", userID), zap.String("email", user.Email))

	if idp != nil {
		if err := idp.DeleteUser(ctx, user.Email); err != nil {
			logger.Log.Warn("identity provider delete failed", zap.String("email", user.Email), zap.Error(err))
		}
	}
	if store != nil {
		for _, path := range documentPaths {
			if err := store.Delete(ctx, path); err != nil {
				logger.Log.Warn("document object delete failed", zap.String("path", path), zap.Error(err))
			}
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomPassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
