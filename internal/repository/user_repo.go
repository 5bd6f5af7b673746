package repository

import (
	"context"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, role, name, contact, lesson_count, used_lesson_count, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Name,
		&user.Contact,
		&user.LessonCount,
		&user.UsedLessonCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ConsumeLessonCredits decrements lesson_count and increments
// used_lesson_count in one guarded update. The WHERE clause makes the
// decrement conditional on enough credits remaining, so two concurrent
// bookings racing for a student's last credit cannot both succeed; the loser
// sees pgx.ErrNoRows.
func (r *UserRepository) ConsumeLessonCredits(
	ctx context.Context,
	userID int64,
	count int,
) (*models.User, error) {
	query := `
		UPDATE users
		SET lesson_count = lesson_count - $2,
		    used_lesson_count = used_lesson_count + $2,
		    updated_at = NOW()
		WHERE id = $1 AND lesson_count >= $2
		RETURNING id, email, password_hash, role, name, contact, lesson_count, used_lesson_count, created_at, updated_at
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, userID, count).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Name,
		&user.Contact,
		&user.LessonCount,
		&user.UsedLessonCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RestoreLessonCredits is the compensating move for ConsumeLessonCredits,
// used when a booking has to be unwound after quota was already consumed.
func (r *UserRepository) RestoreLessonCredits(
	ctx context.Context,
	userID int64,
	count int,
) (*models.User, error) {
	query := `
		UPDATE users
		SET lesson_count = lesson_count + $2,
		    used_lesson_count = used_lesson_count - $2,
		    updated_at = NOW()
		WHERE id = $1 AND used_lesson_count >= $2
		RETURNING id, email, password_hash, role, name, contact, lesson_count, used_lesson_count, created_at, updated_at
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, userID, count).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Name,
		&user.Contact,
		&user.LessonCount,
		&user.UsedLessonCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
