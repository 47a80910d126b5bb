package middleware

import (
	"net/http"

	"pfotencard-backend/internal/models"
	"pfotencard-backend/internal/utils"
	"pfotencard-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireRoles lets the request through only when the authenticated user has one
// of the given roles. It must run after AuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "User not found in context"))
			c.Abort()
			return
		}

		if !allowed[user.Role] {
			logger.Log.Warn("forbidden role",
				zap.Uint("user_id", user.ID),
				zap.String("role", string(user.Role)),
				zap.String("path", c.FullPath()),
			)
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Not authorized to perform this action"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireStaff admits admins and mitarbeiter.
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleStaff)
}

// RequireAdmin admits admins only.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

// RequireSelfOrStaff admits staff and the user whose id is in the path parameter.
func RequireSelfOrStaff(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "User not found in context"))
			c.Abort()
			return
		}

		targetID, err := utils.ParseUintParam(c, param)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
			c.Abort()
			return
		}

		if !user.Role.IsStaff() && user.ID != targetID {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Not authorized to perform this action"))
			c.Abort()
			return
		}

		c.Next()
	}
}
