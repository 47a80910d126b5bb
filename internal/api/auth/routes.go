package auth

import (
	"pfotencard-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	router.POST("/register", h.Register)
	router.POST("/login", Login)
	router.POST("/logout", middleware.AuthMiddleware(), Logout)
}
