package api

import (
	"time"

	"pfotencard-backend/config"
	_ "pfotencard-backend/docs"
	"pfotencard-backend/internal/api/auth"
	"pfotencard-backend/internal/api/document"
	"pfotencard-backend/internal/api/dog"
	"pfotencard-backend/internal/api/transaction"
	"pfotencard-backend/internal/api/upload"
	"pfotencard-backend/internal/api/user"
	"pfotencard-backend/internal/middleware"
	"pfotencard-backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the collaborators handlers need beyond the global database.
type Dependencies struct {
	Levels      *services.LevelService
	Identity    services.IdentityProvider
	Documents   services.ObjectStore
	PublicFiles services.ObjectStore
}

func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	if deps.Levels == nil {
		deps.Levels = services.NewLevelService(services.DefaultLevelSchedule(), services.LevelPolicyAdvisory)
	}
	if deps.Identity == nil {
		deps.Identity = services.NoopIdentityProvider{}
	}

	router := gin.New()
	router.Use(middleware.Logger(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           5 * time.Minute,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiGroup := router.Group("/api")
	{
		auth.RegisterRoutes(apiGroup, auth.NewHandler(deps.Identity))

		authorized := apiGroup.Group("")
		authorized.Use(middleware.AuthMiddleware())
		{
			user.RegisterRoutes(authorized, user.NewHandler(deps.Levels, deps.Identity, deps.Documents))
			transaction.RegisterRoutes(authorized)
			dog.RegisterRoutes(authorized)
			document.RegisterRoutes(authorized, document.NewHandler(deps.Documents))
			upload.RegisterRoutes(authorized, upload.NewHandler(deps.PublicFiles))
		}
	}

	return router
}
