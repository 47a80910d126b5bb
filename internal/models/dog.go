package models

import "gorm.io/datatypes"

type Dog struct {
	ID        uint            `gorm:"primarykey"`
	OwnerID   uint            `gorm:"index;not null"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Breed     string          `gorm:"type:varchar(255)"`
	BirthDate *datatypes.Date `gorm:"type:date"`
	Chip      string          `gorm:"type:varchar(64)"`
}
