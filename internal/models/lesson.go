package models

import "time"

type Lesson struct {
	ID         int64     `json:"id"`
	DueDate    time.Time `json:"due_date"`
	DueHour    int       `json:"due_hour"`
	TeacherID  int64     `json:"teacher_id"`
	LocationID int64     `json:"location_id"`
	IsGrand    bool      `json:"is_grand"`
	UserID     *int64    `json:"user_id"`
	Username   string    `json:"username"`
	Contact    string    `json:"contact"`
	IsDone     bool      `json:"is_done"`
	Note       *string   `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ModifyHistory struct {
	ID         int64     `json:"id"`
	LessonID   int64     `json:"lesson_id"`
	ChangeType string    `json:"change_type"`
	ActorID    *int64    `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	ChangeTypeStudentBooking = "student_booking"
	ChangeTypeAdminBooking   = "admin_booking"
)

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
