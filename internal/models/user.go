package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "mitarbeiter"
	RoleCustomer Role = "kunde"
)

// IsStaff reports whether the role may manage other users' data.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleStaff
}

type User struct {
	ID             uint      `gorm:"primarykey"`
	CreatedAt      time.Time `gorm:"column:customer_since"`
	UpdatedAt      time.Time
	TenantID       uint    `gorm:"index;not null;default:1"`
	AuthID         *string `gorm:"type:varchar(255);uniqueIndex"`
	Email          string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name           string  `gorm:"type:varchar(255);index;not null"`
	Phone          string  `gorm:"type:varchar(50)"`
	HashedPassword string  `gorm:"not null"`
	Role           Role    `gorm:"type:varchar(20);not null;default:'kunde'"`
	IsActive       bool    `gorm:"not null"`
	Balance        float64 `gorm:"type:decimal(12,2);not null;default:0"`
	LevelID        int     `gorm:"not null;default:1"`
	IsVIP          bool    `gorm:"column:is_vip;not null;default:false"`
	IsExpert       bool    `gorm:"not null;default:false"`

	Dogs         []Dog         `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Transactions []Transaction `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Achievements []Achievement `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Documents    []Document    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// SetVIP applies the VIP flag; turning it on clears the expert flag.
func (u *User) SetVIP(v bool) {
	u.IsVIP = v
	if v {
		u.IsExpert = false
	}
}

// SetExpert applies the expert flag; turning it on clears the VIP flag.
func (u *User) SetExpert(v bool) {
	u.IsExpert = v
	if v {
		u.IsVIP = false
	}
}
