package upload

import (
	"pfotencard-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects router to be behind AuthMiddleware.
func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	group := router.Group("/upload")
	group.Use(middleware.RequireStaff())
	{
		group.POST("/image", h.UploadImage)
		group.GET("/token", GetOSSToken)
	}
}
