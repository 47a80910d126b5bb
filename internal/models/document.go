package models

import "time"

type Document struct {
	ID         uint      `gorm:"primarykey"`
	UserID     uint      `gorm:"index;not null"`
	TenantID   uint      `gorm:"index;not null;default:1"`
	FileName   string    `gorm:"type:varchar(255);not null"`
	FileType   string    `gorm:"type:varchar(127)"`
	FilePath   string    `gorm:"type:varchar(512);not null"`
	UploadDate time.Time `gorm:"autoCreateTime"`
}
