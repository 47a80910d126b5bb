package user

import (
	"pfotencard-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects router to be behind AuthMiddleware.
func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	users := router.Group("/users")
	staff := middleware.RequireStaff()
	self := middleware.RequireSelfOrStaff("id")
	{
		users.GET("/me", h.Me)
		users.GET("", staff, h.ListUsers)
		users.GET("/search", staff, h.SearchUsers)
		users.POST("", staff, h.CreateUser)

		users.GET("/:id", self, h.GetUser)
		users.PUT("/:id", self, h.UpdateUser)
		users.DELETE("/:id", middleware.RequireAdmin(), h.DeleteUser)

		users.PUT("/:id/level", staff, h.PromoteUser)
		users.PUT("/:id/vip", staff, h.SetVIP)
		users.PUT("/:id/expert", staff, h.SetExpert)
		users.PUT("/:id/status", staff, h.UpdateStatus)

		users.GET("/:id/achievements", self, h.ListAchievements)
		users.GET("/:id/progress", self, h.GetProgress)
		users.GET("/:id/ledger/verify", middleware.RequireAdmin(), h.VerifyLedger)
	}
}
