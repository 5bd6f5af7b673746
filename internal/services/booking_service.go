package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/repository"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrTeacherNotFound     = errors.New("teacher not found")
	ErrStudentNotFound     = errors.New("student not found")
	ErrOutsideWorkingHours = errors.New("slot is outside the teacher's working hours")
	ErrBannedSlot          = errors.New("slot is banned")
	ErrSlotConflict        = errors.New("slot is already booked")
	ErrInsufficientQuota   = errors.New("no remaining lesson credits")
	ErrOutOfPaymentPeriod  = errors.New("date is outside the active payment period")
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type paymentEligibilityReader interface {
	IsLessonDueInPayment(ctx context.Context, userID int64, date time.Time) (bool, error)
}

type BookingService struct {
	db          *pgxpool.Pool
	userRepo    userReader
	paymentRepo paymentEligibilityReader
	dayCache    DayScheduleCache
	logger      *zap.Logger
	loc         *time.Location
}

// NewBookingService wires the booking pipeline. dayCache may be nil when no
// redis instance is configured.
func NewBookingService(
	db *pgxpool.Pool,
	userRepo userReader,
	paymentRepo paymentEligibilityReader,
	dayCache DayScheduleCache,
	logger *zap.Logger,
	loc *time.Location,
) *BookingService {
	return &BookingService{
		db:          db,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		dayCache:    dayCache,
		logger:      logger,
		loc:         loc,
	}
}

type BookLessonInput struct {
	TeacherID  int64
	LocationID int64
	DueDate    time.Time
	DueHour    int
	IsGrand    bool
	Note       *string
}

type AdminBookLessonInput struct {
	BookLessonInput
	StudentID   *int64
	DisplayName string
	Contact     string
}

// BookAsStudent books a lesson for the calling student. The student must
// have a remaining lesson credit and the date must fall inside an active
// payment period.
func (s *BookingService) BookAsStudent(
	ctx context.Context,
	studentID int64,
	input BookLessonInput,
) (*models.Lesson, error) {
	if err := validateBookInput(input); err != nil {
		return nil, err
	}

	dueDate := NormalizeDate(input.DueDate, s.loc)
	if dueDate.Before(NormalizeDate(time.Now(), s.loc)) {
		return nil, ErrInvalidInput
	}

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if student.Role != models.RoleStudent {
		return nil, ErrInvalidInput
	}

	// advisory; the guarded update inside the transaction is authoritative
	if student.LessonCount <= 0 {
		return nil, ErrInsufficientQuota
	}

	inPayment, err := s.paymentRepo.IsLessonDueInPayment(ctx, studentID, dueDate)
	if err != nil {
		s.logger.Error("payment eligibility lookup failed", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, err
	}
	if !inPayment {
		return nil, ErrOutOfPaymentPeriod
	}

	return s.book(ctx, bookRequest{
		input:      input,
		dueDate:    dueDate,
		studentID:  &studentID,
		username:   student.Name,
		contact:    student.Contact,
		changeType: models.ChangeTypeStudentBooking,
		actorID:    studentID,
		actorName:  student.Name,
	})
}

// BookAsAdmin books a lesson on behalf of a registered student, or for a
// walk-in identified only by display name and contact. Walk-in bookings
// carry no quota; registered students still consume one credit. The payment
// period requirement does not apply on the admin path.
func (s *BookingService) BookAsAdmin(
	ctx context.Context,
	actorID int64,
	input AdminBookLessonInput,
) (*models.Lesson, error) {
	if err := validateBookInput(input.BookLessonInput); err != nil {
		return nil, err
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}

	req := bookRequest{
		input:      input.BookLessonInput,
		dueDate:    NormalizeDate(input.DueDate, s.loc),
		changeType: models.ChangeTypeAdminBooking,
		actorID:    actorID,
		actorName:  actor.Name,
	}

	if input.StudentID != nil {
		student, err := s.userRepo.GetByID(ctx, *input.StudentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrStudentNotFound
			}
			return nil, err
		}
		if student.Role != models.RoleStudent {
			return nil, ErrStudentNotFound
		}
		if student.LessonCount <= 0 {
			return nil, ErrInsufficientQuota
		}
		req.studentID = input.StudentID
		req.username = student.Name
		req.contact = student.Contact
	} else {
		if strings.TrimSpace(input.DisplayName) == "" {
			return nil, ErrInvalidInput
		}
		req.username = strings.TrimSpace(input.DisplayName)
		req.contact = strings.TrimSpace(input.Contact)
	}

	return s.book(ctx, req)
}

type bookRequest struct {
	input      BookLessonInput
	dueDate    time.Time
	studentID  *int64
	username   string
	contact    string
	changeType string
	actorID    int64
	actorName  string
}

func (s *BookingService) book(ctx context.Context, req bookRequest) (*models.Lesson, error) {
	teacher, err := s.userRepo.GetByID(ctx, req.input.TeacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	if teacher.Role != models.RoleTeacher {
		return nil, ErrTeacherNotFound
	}

	// pre-transaction check; cheap rejection before taking the teacher lock
	decision, err := evaluateSlot(
		ctx,
		repository.NewWorkingTimeRepository(s.db),
		repository.NewBannedTimeRepository(s.db),
		repository.NewLessonRepository(s.db),
		s.loc,
		req.input.TeacherID,
		req.dueDate,
		req.input.DueHour,
	)
	if err != nil {
		s.logger.Error("slot pre-check failed", zap.Int64("teacher_id", req.input.TeacherID), zap.Error(err))
		return nil, err
	}
	if err := decisionToError(decision); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// serialize bookings per teacher; the unique index on lessons backstops
	// any path that bypasses this lock
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", req.input.TeacherID); err != nil {
		return nil, err
	}

	txLessonRepo := repository.NewLessonRepository(tx)
	txUserRepo := repository.NewUserRepository(tx)
	txHistoryRepo := repository.NewModifyHistoryRepository(tx)

	decision, err = evaluateSlot(
		ctx,
		repository.NewWorkingTimeRepository(tx),
		repository.NewBannedTimeRepository(tx),
		txLessonRepo,
		s.loc,
		req.input.TeacherID,
		req.dueDate,
		req.input.DueHour,
	)
	if err != nil {
		return nil, err
	}
	if err := decisionToError(decision); err != nil {
		return nil, err
	}

	lesson, err := txLessonRepo.Create(ctx, repository.CreateLessonInput{
		DueDate:    req.dueDate,
		DueHour:    req.input.DueHour,
		TeacherID:  req.input.TeacherID,
		LocationID: req.input.LocationID,
		IsGrand:    req.input.IsGrand,
		UserID:     req.studentID,
		Username:   req.username,
		Contact:    req.contact,
		Note:       req.input.Note,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	if req.studentID != nil {
		if _, err := txUserRepo.ConsumeLessonCredits(ctx, *req.studentID, 1); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// quota ran out between the pre-check and here
				return nil, ErrInsufficientQuota
			}
			return nil, err
		}
	}

	if _, err := txHistoryRepo.Create(ctx, repository.CreateModifyHistoryInput{
		LessonID:   lesson.ID,
		ChangeType: req.changeType,
		ActorID:    &req.actorID,
		ActorName:  req.actorName,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	if s.dayCache != nil {
		if err := s.dayCache.InvalidateDay(ctx, req.input.TeacherID, req.dueDate); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.Error(err))
		}
	}

	s.logger.Info("lesson booked",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("teacher_id", lesson.TeacherID),
		zap.String("due_date", lesson.DueDate.Format("2006-01-02")),
		zap.Int("due_hour", lesson.DueHour),
		zap.String("change_type", req.changeType),
	)

	return lesson, nil
}

func validateBookInput(input BookLessonInput) error {
	if input.TeacherID <= 0 || input.LocationID <= 0 {
		return ErrInvalidInput
	}
	if input.DueHour < 0 || input.DueHour > 23 {
		return ErrInvalidInput
	}
	if input.DueDate.IsZero() {
		return ErrInvalidInput
	}
	return nil
}

func decisionToError(decision SlotDecision) error {
	switch decision {
	case SlotOutsideWorkingHours:
		return ErrOutsideWorkingHours
	case SlotBanned:
		return ErrBannedSlot
	case SlotOccupied:
		return ErrSlotConflict
	default:
		return nil
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
