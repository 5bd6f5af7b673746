package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/cache"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
)

// SlotDecision is the advisory answer to "can this slot be booked".
// The booking transaction re-evaluates it under the teacher's advisory lock;
// the unique index on lessons is the final word.
type SlotDecision string

const (
	SlotAvailable           SlotDecision = "available"
	SlotOutsideWorkingHours SlotDecision = "outside_working_hours"
	SlotBanned              SlotDecision = "banned"
	SlotOccupied            SlotDecision = "occupied"
)

type workingHoursReader interface {
	GetByTeacher(ctx context.Context, teacherID int64) (*models.WorkingTime, error)
}

type bannedTimeReader interface {
	Exists(ctx context.Context, teacherID int64, dueDate time.Time, dueHour int) (bool, error)
}

type lessonOccupancyReader interface {
	ExistsAt(ctx context.Context, teacherID int64, dueDate time.Time, dueHour int) (bool, error)
}

// DayScheduleCache is satisfied by cache.ScheduleCache. It is optional
// everywhere; a nil value disables caching.
type DayScheduleCache interface {
	GetDaySlots(ctx context.Context, teacherID int64, date time.Time) ([]byte, error)
	SetDaySlots(ctx context.Context, teacherID int64, date time.Time, payload []byte) error
	InvalidateDay(ctx context.Context, teacherID int64, date time.Time) error
}

type AvailabilityService struct {
	workingTimeRepo workingHoursReader
	bannedTimeRepo  bannedTimeReader
	lessonRepo      lessonOccupancyReader
	dayCache        DayScheduleCache
	logger          *zap.Logger
	loc             *time.Location
}

// NewAvailabilityService wires the slot decision pipeline. dayCache may be
// nil; DaySlots then always reads from Postgres.
func NewAvailabilityService(
	workingTimeRepo workingHoursReader,
	bannedTimeRepo bannedTimeReader,
	lessonRepo lessonOccupancyReader,
	dayCache DayScheduleCache,
	logger *zap.Logger,
	loc *time.Location,
) *AvailabilityService {
	return &AvailabilityService{
		workingTimeRepo: workingTimeRepo,
		bannedTimeRepo:  bannedTimeRepo,
		lessonRepo:      lessonRepo,
		dayCache:        dayCache,
		logger:          logger,
		loc:             loc,
	}
}

// NormalizeDate truncates a timestamp to academy-local midnight. Every date
// written to or compared against lessons and banned_times goes through this,
// so day boundaries follow the academy calendar rather than UTC.
func NormalizeDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// CheckSlot evaluates working hours, then banned times, then occupancy.
// Occupancy is scoped strictly per (teacher, date, hour): a teacher cannot
// hold two lessons at once, grand room or not.
func (s *AvailabilityService) CheckSlot(
	ctx context.Context,
	teacherID int64,
	date time.Time,
	hour int,
) (SlotDecision, error) {
	return evaluateSlot(ctx, s.workingTimeRepo, s.bannedTimeRepo, s.lessonRepo, s.loc, teacherID, date, hour)
}

// evaluateSlot is shared between the advisory pre-check and the booking
// transaction's in-tx recheck, which passes transaction-bound repositories.
func evaluateSlot(
	ctx context.Context,
	workingTimes workingHoursReader,
	bannedTimes bannedTimeReader,
	lessons lessonOccupancyReader,
	loc *time.Location,
	teacherID int64,
	date time.Time,
	hour int,
) (SlotDecision, error) {
	dueDate := NormalizeDate(date, loc)

	wt, err := workingTimes.GetByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// no working-time record means an empty working set
			return SlotOutsideWorkingHours, nil
		}
		return "", err
	}
	if !wt.Hours.Contains(dueDate.Weekday(), hour) {
		return SlotOutsideWorkingHours, nil
	}

	banned, err := bannedTimes.Exists(ctx, teacherID, dueDate, hour)
	if err != nil {
		return "", err
	}
	if banned {
		return SlotBanned, nil
	}

	occupied, err := lessons.ExistsAt(ctx, teacherID, dueDate, hour)
	if err != nil {
		return "", err
	}
	if occupied {
		return SlotOccupied, nil
	}

	return SlotAvailable, nil
}

type SlotStatus struct {
	Hour     int          `json:"hour"`
	Decision SlotDecision `json:"decision"`
}

// DaySlots returns the decision for each of the teacher's working hours on
// the given day, for calendar rendering. Results may lag in-flight bookings
// slightly when served from cache; the write path never uses them.
func (s *AvailabilityService) DaySlots(
	ctx context.Context,
	teacherID int64,
	date time.Time,
) ([]SlotStatus, error) {
	dueDate := NormalizeDate(date, s.loc)

	if s.dayCache != nil {
		payload, err := s.dayCache.GetDaySlots(ctx, teacherID, dueDate)
		if err == nil {
			var statuses []SlotStatus
			if err := json.Unmarshal(payload, &statuses); err == nil {
				return statuses, nil
			}
			s.logger.Warn("discarding undecodable schedule cache entry", zap.Int64("teacher_id", teacherID))
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("schedule cache read failed", zap.Error(err))
		}
	}

	wt, err := s.workingTimeRepo.GetByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []SlotStatus{}, nil
		}
		return nil, err
	}

	hours := wt.Hours.HoursFor(dueDate.Weekday())
	statuses := make([]SlotStatus, 0, len(hours))
	for _, hour := range hours {
		banned, err := s.bannedTimeRepo.Exists(ctx, teacherID, dueDate, hour)
		if err != nil {
			return nil, err
		}
		if banned {
			statuses = append(statuses, SlotStatus{Hour: hour, Decision: SlotBanned})
			continue
		}

		occupied, err := s.lessonRepo.ExistsAt(ctx, teacherID, dueDate, hour)
		if err != nil {
			return nil, err
		}
		if occupied {
			statuses = append(statuses, SlotStatus{Hour: hour, Decision: SlotOccupied})
			continue
		}

		statuses = append(statuses, SlotStatus{Hour: hour, Decision: SlotAvailable})
	}

	if s.dayCache != nil {
		if payload, err := json.Marshal(statuses); err == nil {
			if err := s.dayCache.SetDaySlots(ctx, teacherID, dueDate, payload); err != nil {
				s.logger.Warn("schedule cache write failed", zap.Error(err))
			}
		}
	}

	return statuses, nil
}
