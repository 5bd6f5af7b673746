package models

import "time"

type User struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            string    `json:"role"`
	Name            string    `json:"name"`
	Contact         string    `json:"contact"`
	LessonCount     int       `json:"lesson_count"`
	UsedLessonCount int       `json:"used_lesson_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type Payment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Refunded  bool      `json:"refunded"`
	CreatedAt time.Time `json:"created_at"`
}
