package auth

import "pfotencard-backend/internal/api/user"

// LoginRequest accepts JSON {"email","password"} as well as the OAuth2 password
// form fields username and password.
type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	User        user.UserResponse `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required,max=255"`
	Phone    string `json:"phone" binding:"max=50"`
}
