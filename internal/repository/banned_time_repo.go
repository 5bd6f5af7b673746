package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
)

type CreateBannedTimeInput struct {
	TeacherID int64
	DueDate   time.Time
	DueHour   int
	CreatedBy *int64
}

type BannedTimeRepository struct {
	db DBTX
}

func NewBannedTimeRepository(db DBTX) *BannedTimeRepository {
	return &BannedTimeRepository{db: db}
}

func (r *BannedTimeRepository) Exists(
	ctx context.Context,
	teacherID int64,
	dueDate time.Time,
	dueHour int,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM banned_times
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

func (r *BannedTimeRepository) Create(
	ctx context.Context,
	input CreateBannedTimeInput,
) (*models.BannedTime, error) {
	query := `
		INSERT INTO banned_times (teacher_id, due_date, due_hour, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, teacher_id, due_date, due_hour, created_by, created_at
	`
	var banned models.BannedTime
	err := r.db.QueryRow(
		ctx,
		query,
		input.TeacherID,
		input.DueDate,
		input.DueHour,
		input.CreatedBy,
	).Scan(
		&banned.ID,
		&banned.TeacherID,
		&banned.DueDate,
		&banned.DueHour,
		&banned.CreatedBy,
		&banned.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &banned, nil
}

// Delete removes one banned slot; it reports whether a row was removed.
func (r *BannedTimeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM banned_times WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BannedTimeRepository) List(
	ctx context.Context,
	teacherID *int64,
	from time.Time,
	to time.Time,
) ([]models.BannedTime, error) {
	args := []any{from, to}
	whereParts := []string{"due_date >= $1", "due_date <= $2"}

	if teacherID != nil {
		args = append(args, *teacherID)
		whereParts = append(whereParts, fmt.Sprintf("teacher_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT id, teacher_id, due_date, due_hour, created_by, created_at
		FROM banned_times
		WHERE %s
		ORDER BY due_date ASC, due_hour ASC, id ASC
	`, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banned := make([]models.BannedTime, 0)
	for rows.Next() {
		var b models.BannedTime
		if err := rows.Scan(&b.ID, &b.TeacherID, &b.DueDate, &b.DueHour, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		banned = append(banned, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return banned, nil
}
