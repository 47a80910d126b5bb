package services

import (
	"errors"
	"time"

	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func createDog(db *gorm.DB, ownerID uint, input DogInput) (*models.Dog, error) {
	dog := &models.Dog{
		OwnerID: ownerID,
		Name:    input.Name,
		Breed:   input.Breed,
		Chip:    input.Chip,
	}
	if input.BirthDate != nil {
		d := datatypes.Date(*input.BirthDate)
		dog.BirthDate = &d
	}
	if err := db.Create(dog).Error; err != nil {
		return nil, err
	}
	return dog, nil
}

// CreateDog adds a dog to an existing user.
func CreateDog(ownerID uint, input DogInput) (*models.Dog, error) {
	if _, err := FindUserByID(ownerID); err != nil {
		return nil, err
	}
	return createDog(database.DB, ownerID, input)
}

func FindDogsByOwner(ownerID uint) ([]models.Dog, error) {
	var dogs []models.Dog
	if err := database.DB.Where("owner_id = ?", ownerID).Order("id asc").Find(&dogs).Error; err != nil {
		return nil, err
	}
	return dogs, nil
}

func FindDogByID(dogID uint) (*models.Dog, error) {
	var dog models.Dog
	if err := database.DB.First(&dog, dogID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDogNotFound
		}
		return nil, err
	}
	return &dog, nil
}

type UpdateDogInput struct {
	Name      *string
	Breed     *string
	BirthDate *time.Time
	Chip      *string
}

func UpdateDog(dogID uint, input UpdateDogInput) (*models.Dog, error) {
	dog, err := FindDogByID(dogID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Breed != nil {
		updates["breed"] = *input.Breed
	}
	if input.Chip != nil {
		updates["chip"] = *input.Chip
	}
	if input.BirthDate != nil {
		updates["birth_date"] = datatypes.Date(*input.BirthDate)
	}
	if len(updates) > 0 {
		if err := database.DB.Model(dog).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return FindDogByID(dogID)
}

func DeleteDog(dogID uint) error {
	res := database.DB.Delete(&models.Dog{}, dogID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDogNotFound
	}
	return nil
}
