package document

import (
	"pfotencard-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects router to be behind AuthMiddleware.
func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	router.POST("/users/:id/documents", middleware.RequireSelfOrStaff("id"), h.Upload)
	router.GET("/users/:id/documents", middleware.RequireSelfOrStaff("id"), h.List)
	router.GET("/documents/:id", h.Get)
	router.DELETE("/documents/:id", h.Delete)
}
