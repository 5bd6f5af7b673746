package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/cache"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/config"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/handlers"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/middleware"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/repository"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/services"
)

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	dayCache *cache.ScheduleCache,
	logger *zap.Logger,
) {
	lessonRepo := repository.NewLessonRepository(db)
	userRepo := repository.NewUserRepository(db)
	workingTimeRepo := repository.NewWorkingTimeRepository(db)
	bannedTimeRepo := repository.NewBannedTimeRepository(db)
	historyRepo := repository.NewModifyHistoryRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// a nil *cache.ScheduleCache must stay a nil interface
	var slotCache services.DayScheduleCache
	if dayCache != nil {
		slotCache = dayCache
	}

	availabilityService := services.NewAvailabilityService(
		workingTimeRepo,
		bannedTimeRepo,
		lessonRepo,
		slotCache,
		logger,
		cfg.Location,
	)
	bookingService := services.NewBookingService(
		db,
		userRepo,
		paymentRepo,
		slotCache,
		logger,
		cfg.Location,
	)
	queryService := services.NewLessonQueryService(lessonRepo, logger, cfg.Location)

	lessonHandler := handlers.NewLessonHandler(bookingService, queryService, availabilityService, cfg.Location)
	adminHandler := handlers.NewAdminHandler(bookingService, lessonRepo, bannedTimeRepo, historyRepo, cfg.Location)

	api := app.Group("/api")
	v1 := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	lessons := v1.Group("/lessons")
	lessons.Post("/book", lessonHandler.BookLesson)
	lessons.Get("", lessonHandler.ListLessons)

	teachers := v1.Group("/teachers")
	teachers.Get("/:id/slots", lessonHandler.TeacherDaySlots)

	admin := v1.Group("/admin")
	admin.Post("/lessons", adminHandler.BookLesson)
	admin.Get("/lessons/:id/history", adminHandler.LessonHistory)
	admin.Get("/banned-times", adminHandler.ListBannedTimes)
	admin.Post("/banned-times", adminHandler.CreateBannedTime)
	admin.Delete("/banned-times/:id", adminHandler.DeleteBannedTime)
}
