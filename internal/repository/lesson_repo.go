package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
)

type CreateLessonInput struct {
	DueDate    time.Time
	DueHour    int
	TeacherID  int64
	LocationID int64
	IsGrand    bool
	UserID     *int64
	Username   string
	Contact    string
	Note       *string
}

type LessonListFilter struct {
	From       time.Time
	To         time.Time
	TeacherID  *int64
	LocationID *int64
}

type LessonRepository struct {
	db DBTX
}

func NewLessonRepository(db DBTX) *LessonRepository {
	return &LessonRepository{db: db}
}

func (r *LessonRepository) Create(
	ctx context.Context,
	input CreateLessonInput,
) (*models.Lesson, error) {
	query := `
		INSERT INTO lessons (due_date, due_hour, teacher_id, location_id, is_grand, user_id, username, contact, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, due_date, due_hour, teacher_id, location_id, is_grand, user_id, username, contact, is_done, note, created_at, updated_at
	`

	var lesson models.Lesson
	err := r.db.QueryRow(
		ctx,
		query,
		input.DueDate,
		input.DueHour,
		input.TeacherID,
		input.LocationID,
		input.IsGrand,
		input.UserID,
		input.Username,
		input.Contact,
		input.Note,
	).Scan(
		&lesson.ID,
		&lesson.DueDate,
		&lesson.DueHour,
		&lesson.TeacherID,
		&lesson.LocationID,
		&lesson.IsGrand,
		&lesson.UserID,
		&lesson.Username,
		&lesson.Contact,
		&lesson.IsDone,
		&lesson.Note,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) GetByID(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	query := `
		SELECT id, due_date, due_hour, teacher_id, location_id, is_grand, user_id, username, contact, is_done, note, created_at, updated_at
		FROM lessons
		WHERE id = $1
	`
	var lesson models.Lesson
	err := r.db.QueryRow(ctx, query, lessonID).Scan(
		&lesson.ID,
		&lesson.DueDate,
		&lesson.DueHour,
		&lesson.TeacherID,
		&lesson.LocationID,
		&lesson.IsGrand,
		&lesson.UserID,
		&lesson.Username,
		&lesson.Contact,
		&lesson.IsDone,
		&lesson.Note,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ExistsAt reports whether the teacher already has a lesson at the slot.
// Occupancy is scoped to the teacher alone; grand lessons and locations do
// not partition a teacher's time.
func (r *LessonRepository) ExistsAt(
	ctx context.Context,
	teacherID int64,
	dueDate time.Time,
	dueHour int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM lessons
			WHERE teacher_id = $1
			  AND due_date = $2
			  AND due_hour = $3
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, teacherID, dueDate, dueHour).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *LessonRepository) List(
	ctx context.Context,
	filter LessonListFilter,
) ([]models.Lesson, error) {
	args := []any{filter.From, filter.To}
	whereParts := []string{"due_date >= $1", "due_date <= $2"}

	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		whereParts = append(whereParts, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.LocationID != nil {
		args = append(args, *filter.LocationID)
		whereParts = append(whereParts, fmt.Sprintf("location_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT id, due_date, due_hour, teacher_id, location_id, is_grand, user_id, username, contact, is_done, note, created_at, updated_at
		FROM lessons
		WHERE %s
		ORDER BY due_date ASC, due_hour ASC, id ASC
	`, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		var lesson models.Lesson
		if err := rows.Scan(
			&lesson.ID,
			&lesson.DueDate,
			&lesson.DueHour,
			&lesson.TeacherID,
			&lesson.LocationID,
			&lesson.IsGrand,
			&lesson.UserID,
			&lesson.Username,
			&lesson.Contact,
			&lesson.IsDone,
			&lesson.Note,
			&lesson.CreatedAt,
			&lesson.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lessons, nil
}
