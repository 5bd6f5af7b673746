package repository

import (
	"context"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
)

type CreateModifyHistoryInput struct {
	LessonID   int64
	ChangeType string
	ActorID    *int64
	ActorName  string
}

type ModifyHistoryRepository struct {
	db DBTX
}

func NewModifyHistoryRepository(db DBTX) *ModifyHistoryRepository {
	return &ModifyHistoryRepository{db: db}
}

func (r *ModifyHistoryRepository) Create(
	ctx context.Context,
	input CreateModifyHistoryInput,
) (*models.ModifyHistory, error) {
	query := `
		INSERT INTO modify_histories (lesson_id, change_type, actor_id, actor_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lesson_id, change_type, actor_id, actor_name, created_at
	`
	var history models.ModifyHistory
	err := r.db.QueryRow(
		ctx,
		query,
		input.LessonID,
		input.ChangeType,
		input.ActorID,
		input.ActorName,
	).Scan(
		&history.ID,
		&history.LessonID,
		&history.ChangeType,
		&history.ActorID,
		&history.ActorName,
		&history.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *ModifyHistoryRepository) ListByLesson(
	ctx context.Context,
	lessonID int64,
	limit int,
	offset int,
) ([]models.ModifyHistory, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM modify_histories WHERE lesson_id = $1`
	if err := r.db.QueryRow(ctx, countQuery, lessonID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, lesson_id, change_type, actor_id, actor_name, created_at
		FROM modify_histories
		WHERE lesson_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, lessonID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	histories := make([]models.ModifyHistory, 0)
	for rows.Next() {
		var h models.ModifyHistory
		if err := rows.Scan(&h.ID, &h.LessonID, &h.ChangeType, &h.ActorID, &h.ActorName, &h.CreatedAt); err != nil {
			return nil, 0, err
		}
		histories = append(histories, h)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return histories, total, nil
}
