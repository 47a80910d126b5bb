package transaction

import (
	"pfotencard-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects router to be behind AuthMiddleware.
func RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/transactions", middleware.RequireStaff(), BookTransaction)
	router.GET("/transactions", ListTransactions)
	router.GET("/transactions/export", middleware.RequireAdmin(), ExportTransactions)
}
