package dog

import (
	"pfotencard-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects router to be behind AuthMiddleware.
func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users/:id/dogs", middleware.RequireSelfOrStaff("id"), ListDogs)
	router.POST("/users/:id/dogs", middleware.RequireStaff(), CreateDog)
	router.PUT("/dogs/:id", UpdateDog)
	router.DELETE("/dogs/:id", middleware.RequireStaff(), DeleteDog)
}
