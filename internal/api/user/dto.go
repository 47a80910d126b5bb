package user

import (
	"time"

	"pfotencard-backend/internal/api/document"
	"pfotencard-backend/internal/api/dog"
	"pfotencard-backend/internal/api/transaction"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/internal/services"
)

type CreateUserRequest struct {
	Email    string           `json:"email" binding:"required,email"`
	Name     string           `json:"name" binding:"required,max=255"`
	Phone    string           `json:"phone" binding:"max=50"`
	Role     string           `json:"role" binding:"omitempty,oneof=admin mitarbeiter kunde"`
	IsActive *bool            `json:"is_active"`
	Password string           `json:"password" binding:"omitempty,min=6"`
	LevelID  int              `json:"level_id" binding:"omitempty,min=1"`
	Balance  float64          `json:"balance"`
	Dogs     []dog.DogRequest `json:"dogs" binding:"omitempty,dive"`
}

func (r CreateUserRequest) Input() services.CreateUserInput {
	in := services.CreateUserInput{
		Email:          r.Email,
		Name:           r.Name,
		Phone:          r.Phone,
		Role:           models.Role(r.Role),
		IsActive:       true,
		Password:       r.Password,
		LevelID:        r.LevelID,
		OpeningBalance: r.Balance,
	}
	if r.IsActive != nil {
		in.IsActive = *r.IsActive
	}
	for _, d := range r.Dogs {
		in.Dogs = append(in.Dogs, d.Input())
	}
	return in
}

type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Name     *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Phone    *string `json:"phone,omitempty" binding:"omitempty,max=50"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=6"`
	Role     *string `json:"role,omitempty" binding:"omitempty,oneof=admin mitarbeiter kunde"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (r UpdateUserRequest) Input() services.UpdateUserInput {
	in := services.UpdateUserInput{
		Email:    r.Email,
		Name:     r.Name,
		Phone:    r.Phone,
		Password: r.Password,
		IsActive: r.IsActive,
	}
	if r.Role != nil {
		role := models.Role(*r.Role)
		in.Role = &role
	}
	return in
}

type LevelRequest struct {
	LevelID int `json:"level_id" binding:"required,min=1"`
}

type VIPRequest struct {
	IsVIP *bool `json:"is_vip" binding:"required"`
}

type ExpertRequest struct {
	IsExpert *bool `json:"is_expert" binding:"required"`
}

type StatusRequest struct {
	IsVIP    *bool `json:"is_vip,omitempty"`
	IsExpert *bool `json:"is_expert,omitempty"`
	IsActive *bool `json:"is_active,omitempty"`
}

type AchievementResponse struct {
	ID            uint      `json:"id"`
	RequirementID string    `json:"requirement_id"`
	DateAchieved  time.Time `json:"date_achieved"`
	IsConsumed    bool      `json:"is_consumed"`
	TransactionID *uint     `json:"transaction_id"`
}

// UserResponse defines the response structure for user information. Related
// collections are only filled on detail views.
type UserResponse struct {
	ID            uint                              `json:"id"`
	TenantID      uint                              `json:"tenant_id"`
	AuthID        *string                           `json:"auth_id,omitempty"`
	Email         string                            `json:"email"`
	Name          string                            `json:"name"`
	Phone         string                            `json:"phone"`
	Role          models.Role                       `json:"role"`
	IsActive      bool                              `json:"is_active"`
	Balance       float64                           `json:"balance"`
	LevelID       int                               `json:"level_id"`
	IsVIP         bool                              `json:"is_vip"`
	IsExpert      bool                              `json:"is_expert"`
	CustomerSince time.Time                         `json:"customer_since"`
	UpdatedAt     time.Time                         `json:"updated_at"`
	Dogs          []dog.DogResponse                 `json:"dogs,omitempty"`
	Transactions  []transaction.TransactionResponse `json:"transactions,omitempty"`
	Achievements  []AchievementResponse             `json:"achievements,omitempty"`
	Documents     []document.DocumentResponse       `json:"documents,omitempty"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func NewAchievementResponses(list []models.Achievement) []AchievementResponse {
	out := make([]AchievementResponse, 0, len(list))
	for _, a := range list {
		out = append(out, AchievementResponse{
			ID:            a.ID,
			RequirementID: a.RequirementID,
			DateAchieved:  a.DateAchieved,
			IsConsumed:    a.IsConsumed,
			TransactionID: a.TransactionID,
		})
	}
	return out
}

func NewUserResponse(u models.User) UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		TenantID:      u.TenantID,
		AuthID:        u.AuthID,
		Email:         u.Email,
		Name:          u.Name,
		Phone:         u.Phone,
		Role:          u.Role,
		IsActive:      u.IsActive,
		Balance:       u.Balance,
		LevelID:       u.LevelID,
		IsVIP:         u.IsVIP,
		IsExpert:      u.IsExpert,
		CustomerSince: u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if len(u.Dogs) > 0 {
		resp.Dogs = dog.NewDogResponses(u.Dogs)
	}
	if len(u.Transactions) > 0 {
		resp.Transactions = transaction.NewTransactionResponses(u.Transactions)
	}
	if len(u.Achievements) > 0 {
		resp.Achievements = NewAchievementResponses(u.Achievements)
	}
	if len(u.Documents) > 0 {
		resp.Documents = document.NewDocumentResponses(u.Documents)
	}
	return resp
}
