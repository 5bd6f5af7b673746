package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// WeeklyHours maps a weekday to the set of hours a teacher works on that day.
// It is decoded once at the repository boundary; callers never touch the
// stored JSON shape.
type WeeklyHours map[time.Weekday][]int

var weekdayKeys = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// ParseWeeklyHours decodes the stored {"mon":[9,10],...} JSON document.
// Unknown day keys are rejected, hours outside 0-23 are rejected.
func ParseWeeklyHours(raw []byte) (WeeklyHours, error) {
	if len(raw) == 0 {
		return WeeklyHours{}, nil
	}

	var doc map[string][]int
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode weekly hours: %w", err)
	}

	hours := make(WeeklyHours, len(doc))
	for key, dayHours := range doc {
		weekday, ok := weekdayKeys[key]
		if !ok {
			return nil, fmt.Errorf("decode weekly hours: unknown day key %q", key)
		}
		for _, h := range dayHours {
			if h < 0 || h > 23 {
				return nil, fmt.Errorf("decode weekly hours: hour %d out of range for %q", h, key)
			}
		}
		sorted := append([]int(nil), dayHours...)
		sort.Ints(sorted)
		hours[weekday] = sorted
	}
	return hours, nil
}

// Contains reports whether the teacher works the given hour on the given weekday.
func (w WeeklyHours) Contains(day time.Weekday, hour int) bool {
	for _, h := range w[day] {
		if h == hour {
			return true
		}
	}
	return false
}

// HoursFor returns the working hours for a weekday, sorted ascending.
// The empty set means the teacher does not work that day.
func (w WeeklyHours) HoursFor(day time.Weekday) []int {
	return w[day]
}

type WorkingTime struct {
	TeacherID int64       `json:"teacher_id"`
	Hours     WeeklyHours `json:"hours"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type BannedTime struct {
	ID        int64     `json:"id"`
	TeacherID int64     `json:"teacher_id"`
	DueDate   time.Time `json:"due_date"`
	DueHour   int       `json:"due_hour"`
	CreatedBy *int64    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
