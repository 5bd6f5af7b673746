package repository

import (
	"context"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
)

type WorkingTimeRepository struct {
	db DBTX
}

func NewWorkingTimeRepository(db DBTX) *WorkingTimeRepository {
	return &WorkingTimeRepository{db: db}
}

// GetByTeacher loads the teacher's weekly hours and decodes the stored JSON
// document exactly once. Teachers without a working-time row yield
// pgx.ErrNoRows; callers treat that as an empty working set.
func (r *WorkingTimeRepository) GetByTeacher(
	ctx context.Context,
	teacherID int64,
) (*models.WorkingTime, error) {
	query := `
		SELECT teacher_id, hours, updated_at
		FROM working_times
		WHERE teacher_id = $1
	`

	var (
		wt  models.WorkingTime
		raw []byte
	)
	err := r.db.QueryRow(ctx, query, teacherID).Scan(&wt.TeacherID, &raw, &wt.UpdatedAt)
	if err != nil {
		return nil, err
	}

	hours, err := models.ParseWeeklyHours(raw)
	if err != nil {
		return nil, err
	}
	wt.Hours = hours
	return &wt, nil
}
