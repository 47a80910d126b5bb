package main

import (
	"log"

	"pfotencard-backend/config"
	"pfotencard-backend/internal/api"
	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/services"
	"pfotencard-backend/pkg/logger"

	"go.uber.org/zap"
)

// @title PfotenCard API
// @version 1.0
// @description Loyalty card backend for a dog training school: customers, dogs, balance top-ups with bonus, achievements and levels.

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	}); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		logger.Log.Fatal("failed to connect database", zap.Error(err))
	}

	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("failed to migrate database", zap.Error(err))
	}

	if err := database.ConnectRedis(cfg); err != nil {
		logger.Log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer database.CloseRedis()

	if err := services.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		logger.Log.Fatal("failed to create admin user", zap.Error(err))
	}

	levels, err := newLevelService(cfg)
	if err != nil {
		logger.Log.Fatal("failed to set up level progression", zap.Error(err))
	}

	deps := api.Dependencies{
		Levels:   levels,
		Identity: services.NewIdentityProvider(cfg),
	}
	if cfg.OSSEndpoint != "" {
		documents, err := services.NewOSSStore(cfg, cfg.OSSBucketName)
		if err != nil {
			logger.Log.Fatal("failed to open document bucket", zap.Error(err))
		}
		public, err := services.NewOSSStore(cfg, cfg.OSSPublicBucketName)
		if err != nil {
			logger.Log.Fatal("failed to open public bucket", zap.Error(err))
		}
		deps.Documents = documents
		deps.PublicFiles = public
	} else {
		logger.Log.Warn("OSS_ENDPOINT not set, document and image uploads are disabled")
	}

	router := api.NewRouter(cfg, deps)

	logger.Log.Info("server starting", zap.String("addr", cfg.ServerAddr), zap.String("level_policy", string(levels.Policy())))
	if err := router.Run(cfg.ServerAddr); err != nil {
		logger.Log.Fatal("failed to run server", zap.Error(err))
	}
}

func newLevelService(cfg *config.Config) (*services.LevelService, error) {
	policy, err := services.ParseLevelPolicy(cfg.LevelPolicy)
	if err != nil {
		return nil, err
	}

	schedule := services.DefaultLevelSchedule()
	if cfg.LevelScheduleFile != "" {
		schedule, err = services.LoadLevelSchedule(cfg.LevelScheduleFile)
		if err != nil {
			return nil, err
		}
	}
	return services.NewLevelService(schedule, policy), nil
}
