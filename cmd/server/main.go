package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/cache"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/config"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/database"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/logging"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/middleware"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/routes"
)

const scheduleCacheTTL = 30 * time.Second

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger := logging.NewLogger(cfg.AppEnv)
	defer func() {
		_ = zapLogger.Sync()
	}()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	// 3. Optional schedule cache
	var dayCache *cache.ScheduleCache
	if cfg.RedisAddr != "" {
		dayCache, err = cache.NewScheduleCache(cfg.RedisAddr, scheduleCacheTTL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer func() {
			_ = dayCache.Close()
		}()
		zapLogger.Info("schedule cache enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	// 4. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(middleware.RequestID())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, database.DB, dayCache, zapLogger)

	// 5. Start Server
	zapLogger.Info("server starting", zap.String("port", cfg.Port), zap.String("timezone", cfg.Timezone))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
