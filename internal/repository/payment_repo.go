package repository

import (
	"context"
	"time"
)

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// IsLessonDueInPayment reports whether the date falls inside one of the
// student's active, non-refunded payment periods.
func (r *PaymentRepository) IsLessonDueInPayment(
	ctx context.Context,
	userID int64,
	date time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM payments
			WHERE user_id = $1
			  AND NOT refunded
			  AND start_date <= $2
			  AND end_date >= $2
		)
	`
	var active bool
	if err := r.db.QueryRow(ctx, query, userID, date).Scan(&active); err != nil {
		return false, err
	}
	return active, nil
}
