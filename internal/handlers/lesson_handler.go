package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/services"
)

const dateLayout = "2006-01-02"

type LessonHandler struct {
	booking      lessonBookingService
	query        lessonQueryService
	availability slotAvailabilityService
	loc          *time.Location
}

type lessonBookingService interface {
	BookAsStudent(ctx context.Context, studentID int64, input services.BookLessonInput) (*models.Lesson, error)
}

type lessonQueryService interface {
	ListLessons(ctx context.Context, from, to time.Time, teacherID, locationID *int64) ([]models.Lesson, error)
}

type slotAvailabilityService interface {
	DaySlots(ctx context.Context, teacherID int64, date time.Time) ([]services.SlotStatus, error)
}

func NewLessonHandler(
	booking *services.BookingService,
	query *services.LessonQueryService,
	availability *services.AvailabilityService,
	loc *time.Location,
) *LessonHandler {
	return &LessonHandler{booking: booking, query: query, availability: availability, loc: loc}
}

// parseRequestDate reads a YYYY-MM-DD field as midnight in the academy
// timezone. Parsing in UTC would shift the calendar day for zones behind UTC
// once the instant is normalized.
func parseRequestDate(raw string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
}

type bookLessonRequest struct {
	TeacherID  int64   `json:"teacher_id"`
	LocationID int64   `json:"location_id"`
	DueDate    string  `json:"due_date"`
	DueHour    int     `json:"due_hour"`
	IsGrand    bool    `json:"is_grand"`
	Note       *string `json:"note"`
}

func (h *LessonHandler) BookLesson(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	studentID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	dueDate, err := parseRequestDate(req.DueDate, h.loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "due_date must be a valid YYYY-MM-DD date"})
	}
	if req.DueHour < 0 || req.DueHour > 23 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "due_hour must be between 0 and 23"})
	}

	lesson, err := h.booking.BookAsStudent(c.Context(), studentID, services.BookLessonInput{
		TeacherID:  req.TeacherID,
		LocationID: req.LocationID,
		DueDate:    dueDate,
		DueHour:    req.DueHour,
		IsGrand:    req.IsGrand,
		Note:       req.Note,
	})
	if err != nil {
		return mapLessonError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lesson": lesson})
}

func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
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
	locationID, err := parseOptionalIDQuery(c, "location_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "location_id must be a positive integer"})
	}

	lessons, err := h.query.ListLessons(c.Context(), from, to, teacherID, locationID)
	if err != nil {
		return mapLessonError(c, err)
	}

	return c.JSON(fiber.Map{"lessons": lessons})
}

func (h *LessonHandler) TeacherDaySlots(c *fiber.Ctx) error {
	if _, err := parseActorID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	teacherID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || teacherID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid teacher id"})
	}

	date, err := parseRequestDate(c.Query("date"), h.loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be a valid YYYY-MM-DD date"})
	}

	slots, err := h.availability.DaySlots(c.Context(), teacherID, date)
	if err != nil {
		return mapLessonError(c, err)
	}

	return c.JSON(fiber.Map{"slots": slots})
}

func parseOptionalIDQuery(c *fiber.Ctx, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, strconv.ErrSyntax
	}
	return &id, nil
}

func mapLessonError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTeacherNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Teacher not found"})
	case errors.Is(err, services.ErrStudentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	case errors.Is(err, services.ErrSlotConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Slot is already booked"})
	case errors.Is(err, services.ErrOutsideWorkingHours),
		errors.Is(err, services.ErrBannedSlot),
		errors.Is(err, services.ErrInsufficientQuota),
		errors.Is(err, services.ErrOutOfPaymentPeriod):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process lesson request"})
	}
}
