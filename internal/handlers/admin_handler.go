package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/repository"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/services"
)

type AdminHandler struct {
	booking        adminBookingService
	lessonRepo     lessonStore
	bannedTimeRepo bannedTimeStore
	historyRepo    modifyHistoryStore
	loc            *time.Location
}

type adminBookingService interface {
	BookAsAdmin(ctx context.Context, actorID int64, input services.AdminBookLessonInput) (*models.Lesson, error)
}

type lessonStore interface {
	GetByID(ctx context.Context, lessonID int64) (*models.Lesson, error)
}

type bannedTimeStore interface {
	Create(ctx context.Context, input repository.CreateBannedTimeInput) (*models.BannedTime, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, teacherID *int64, from, to time.Time) ([]models.BannedTime, error)
}

type modifyHistoryStore interface {
	ListByLesson(ctx context.Context, lessonID int64, limit, offset int) ([]models.ModifyHistory, int, error)
}

func NewAdminHandler(
	booking *services.BookingService,
	lessonRepo *repository.LessonRepository,
	bannedTimeRepo *repository.BannedTimeRepository,
	historyRepo *repository.ModifyHistoryRepository,
	loc *time.Location,
) *AdminHandler {
	return &AdminHandler{
		booking:        booking,
		lessonRepo:     lessonRepo,
		bannedTimeRepo: bannedTimeRepo,
		historyRepo:    historyRepo,
		loc:            loc,
	}
}

type adminBookLessonRequest struct {
	bookLessonRequest
	StudentID   *int64 `json:"student_id"`
	DisplayName string `json:"display_name"`
	Contact     string `json:"contact"`
}

func (h *AdminHandler) BookLesson(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req adminBookLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	dueDate, err := parseRequestDate(req.DueDate, h.loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "due_date must be a valid YYYY-MM-DD date"})
	}
	if req.StudentID == nil && strings.TrimSpace(req.DisplayName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "student_id or display_name is required"})
	}

	lesson, err := h.booking.BookAsAdmin(c.Context(), actorID, services.AdminBookLessonInput{
		BookLessonInput: services.BookLessonInput{
			TeacherID:  req.TeacherID,
			LocationID: req.LocationID,
			DueDate:    dueDate,
			DueHour:    req.DueHour,
			IsGrand:    req.IsGrand,
			Note:       req.Note,
		},
		StudentID:   req.StudentID,
		DisplayName: req.DisplayName,
		Contact:     req.Contact,
	})
	if err != nil {
		return mapLessonError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lesson": lesson})
}

type createBannedTimeRequest struct {
	TeacherID int64  `json:"teacher_id"`
	DueDate   string `json:"due_date"`
	DueHour   int    `json:"due_hour"`
}

func (h *AdminHandler) CreateBannedTime(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createBannedTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.TeacherID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "teacher_id must be a positive integer"})
	}
	if req.DueHour < 0 || req.DueHour > 23 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "due_hour must be between 0 and 23"})
	}
	dueDate, err := parseRequestDate(req.DueDate, h.loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "due_date must be a valid YYYY-MM-DD date"})
	}

	banned, err := h.bannedTimeRepo.Create(c.Context(), repository.CreateBannedTimeInput{
		TeacherID: req.TeacherID,
		DueDate:   services.NormalizeDate(dueDate, h.loc),
		DueHour:   req.DueHour,
		CreatedBy: &actorID,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Slot is already banned"})
			case "23503":
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher not found"})
			}
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create banned time"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"banned_time": banned})
}

func (h *AdminHandler) DeleteBannedTime(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	if _, err := parseActorID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid banned time id"})
	}

	deleted, err := h.bannedTimeRepo.Delete(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete banned time"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Banned time not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AdminHandler) ListBannedTimes(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	if _, err := parseActorID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	from, err := parseRequestDate(c.Query("from"), h.loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "from must be a valid YYYY-MM-DD date"})
	}
	to, err := parseRequestDate(c.Query("to"), h.loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "to must be a valid YYYY-MM-DD date"})
	}
	teacherID, err := parseOptionalIDQuery(c, "teacher_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "teacher_id must be a positive integer"})
	}

	banned, err := h.bannedTimeRepo.List(c.Context(), teacherID, from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list banned times"})
	}

	return c.JSON(fiber.Map{"banned_times": banned})
}

func (h *AdminHandler) LessonHistory(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	if _, err := parseActorID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	lessonID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || lessonID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	if _, err := h.lessonRepo.GetByID(c.Context(), lessonID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list lesson history"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultPageLimit)
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	history, total, err := h.historyRepo.ListByLesson(c.Context(), lessonID, limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list lesson history"})
	}

	return c.JSON(fiber.Map{
		"history":    history,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

