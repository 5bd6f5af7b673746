package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/repository"
)

type lessonLister interface {
	List(ctx context.Context, filter repository.LessonListFilter) ([]models.Lesson, error)
}

// LessonQueryService serves range-filtered lesson reads for calendar
// rendering. It reflects committed state only and is never consulted by the
// booking transaction.
type LessonQueryService struct {
	lessonRepo lessonLister
	logger     *zap.Logger
	loc        *time.Location
}

func NewLessonQueryService(lessonRepo lessonLister, logger *zap.Logger, loc *time.Location) *LessonQueryService {
	return &LessonQueryService{lessonRepo: lessonRepo, logger: logger, loc: loc}
}

func (s *LessonQueryService) ListLessons(
	ctx context.Context,
	from time.Time,
	to time.Time,
	teacherID *int64,
	locationID *int64,
) ([]models.Lesson, error) {
	if from.IsZero() || to.IsZero() {
		return nil, ErrInvalidInput
	}

	fromDate := NormalizeDate(from, s.loc)
	toDate := NormalizeDate(to, s.loc)
	if toDate.Before(fromDate) {
		return nil, ErrInvalidInput
	}

	lessons, err := s.lessonRepo.List(ctx, repository.LessonListFilter{
		From:       fromDate,
		To:         toDate,
		TeacherID:  teacherID,
		LocationID: locationID,
	})
	if err != nil {
		s.logger.Error("lesson range query failed", zap.Error(err))
		return nil, err
	}

	return lessons, nil
}
