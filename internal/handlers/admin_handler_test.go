package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cla6shade/lessonmanager-renew-sub000/internal/models"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/repository"
	"github.com/cla6shade/lessonmanager-renew-sub000/internal/services"
)

type stubAdminBookingService struct {
	result      *models.Lesson
	err         error
	lastActorID int64
	lastInput   services.AdminBookLessonInput
}

func (s *stubAdminBookingService) BookAsAdmin(_ context.Context, actorID int64, input services.AdminBookLessonInput) (*models.Lesson, error) {
	s.lastActorID = actorID
	s.lastInput = input
	return s.result, s.err
}

type stubBannedTimeStore struct {
	created    *models.BannedTime
	createErr  error
	deleted    bool
	deleteErr  error
	listResult []models.BannedTime
	listErr    error
	lastInput  repository.CreateBannedTimeInput
	lastID     int64
}

func (s *stubBannedTimeStore) Create(_ context.Context, input repository.CreateBannedTimeInput) (*models.BannedTime, error) {
	s.lastInput = input
	return s.created, s.createErr
}

func (s *stubBannedTimeStore) Delete(_ context.Context, id int64) (bool, error) {
	s.lastID = id
	return s.deleted, s.deleteErr
}

func (s *stubBannedTimeStore) List(_ context.Context, _ *int64, _, _ time.Time) ([]models.BannedTime, error) {
	return s.listResult, s.listErr
}

type stubLessonStore struct {
	result *models.Lesson
	err    error
}

func (s *stubLessonStore) GetByID(_ context.Context, _ int64) (*models.Lesson, error) {
	return s.result, s.err
}

type stubModifyHistoryStore struct {
	result     []models.ModifyHistory
	total      int
	err        error
	lastLesson int64
	lastLimit  int
	lastOffset int
}

func (s *stubModifyHistoryStore) ListByLesson(_ context.Context, lessonID int64, limit, offset int) ([]models.ModifyHistory, int, error) {
	s.lastLesson = lessonID
	s.lastLimit = limit
	s.lastOffset = offset
	return s.result, s.total, s.err
}

func newAdminTestApp(handler *AdminHandler, role, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/v1/admin/lessons", handler.BookLesson)
	app.Get("/api/v1/admin/lessons/:id/history", handler.LessonHistory)
	app.Get("/api/v1/admin/banned-times", handler.ListBannedTimes)
	app.Post("/api/v1/admin/banned-times", handler.CreateBannedTime)
	app.Delete("/api/v1/admin/banned-times/:id", handler.DeleteBannedTime)
	return app
}

func TestAdminBookLessonWalkIn(t *testing.T) {
	booking := &stubAdminBookingService{
		result: &models.Lesson{ID: 55, TeacherID: 7, Username: "Walk-in Guest"},
	}
	app := newAdminTestApp(&AdminHandler{booking: booking, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/lessons", strings.NewReader(`{
		"teacher_id": 7,
		"location_id": 1,
		"due_date": "2030-06-03",
		"due_hour": 9,
		"display_name": "Walk-in Guest",
		"contact": "010-0000-0000"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if booking.lastActorID != 1 {
		t.Fatalf("expected actor 1, got %d", booking.lastActorID)
	}
	if booking.lastInput.StudentID != nil {
		t.Fatalf("expected walk-in input, got student %+v", booking.lastInput.StudentID)
	}
	if booking.lastInput.DisplayName != "Walk-in Guest" {
		t.Fatalf("unexpected display name %q", booking.lastInput.DisplayName)
	}
}

func TestAdminBookLessonForbiddenForStudents(t *testing.T) {
	app := newAdminTestApp(&AdminHandler{booking: &stubAdminBookingService{}, loc: time.UTC}, models.RoleStudent, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/lessons", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestAdminBookLessonRequiresStudentOrDisplayName(t *testing.T) {
	app := newAdminTestApp(&AdminHandler{booking: &stubAdminBookingService{}, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/lessons", strings.NewReader(`{
		"teacher_id": 7,
		"location_id": 1,
		"due_date": "2030-06-03",
		"due_hour": 9
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateBannedTimeRecordsActor(t *testing.T) {
	store := &stubBannedTimeStore{
		created: &models.BannedTime{ID: 3, TeacherID: 7, DueHour: 9},
	}
	app := newAdminTestApp(&AdminHandler{bannedTimeRepo: store, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/banned-times", strings.NewReader(`{
		"teacher_id": 7,
		"due_date": "2030-06-03",
		"due_hour": 9
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if store.lastInput.TeacherID != 7 || store.lastInput.DueHour != 9 {
		t.Fatalf("unexpected input: %+v", store.lastInput)
	}
	if store.lastInput.CreatedBy == nil || *store.lastInput.CreatedBy != 1 {
		t.Fatalf("expected creator 1, got %+v", store.lastInput.CreatedBy)
	}
}

func TestCreateBannedTimeKeepsCalendarDayInWesternZones(t *testing.T) {
	store := &stubBannedTimeStore{created: &models.BannedTime{ID: 3}}
	western := time.FixedZone("UTC-5", -5*60*60)
	app := newAdminTestApp(&AdminHandler{bannedTimeRepo: store, loc: western}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/banned-times", strings.NewReader(`{
		"teacher_id": 7,
		"due_date": "2030-06-03",
		"due_hour": 9
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if got := store.lastInput.DueDate.Format("2006-01-02"); got != "2030-06-03" {
		t.Fatalf("requested day 2030-06-03 stored as %s", got)
	}
	if store.lastInput.DueDate.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %v", store.lastInput.DueDate.Weekday())
	}
}

func TestCreateBannedTimeConflictOnDuplicate(t *testing.T) {
	store := &stubBannedTimeStore{createErr: &pgconn.PgError{Code: "23505"}}
	app := newAdminTestApp(&AdminHandler{bannedTimeRepo: store, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/banned-times", strings.NewReader(`{
		"teacher_id": 7,
		"due_date": "2030-06-03",
		"due_hour": 9
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCreateBannedTimeRejectsBadHour(t *testing.T) {
	app := newAdminTestApp(&AdminHandler{bannedTimeRepo: &stubBannedTimeStore{}, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/banned-times", strings.NewReader(`{
		"teacher_id": 7,
		"due_date": "2030-06-03",
		"due_hour": 24
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteBannedTimeNotFound(t *testing.T) {
	store := &stubBannedTimeStore{deleted: false}
	app := newAdminTestApp(&AdminHandler{bannedTimeRepo: store, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/banned-times/99", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if store.lastID != 99 {
		t.Fatalf("expected delete id 99, got %d", store.lastID)
	}
}

func TestDeleteBannedTimeNoContent(t *testing.T) {
	store := &stubBannedTimeStore{deleted: true}
	app := newAdminTestApp(&AdminHandler{bannedTimeRepo: store, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/banned-times/3", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestListBannedTimesReturnsRows(t *testing.T) {
	store := &stubBannedTimeStore{listResult: []models.BannedTime{{ID: 3, TeacherID: 7, DueHour: 9}}}
	app := newAdminTestApp(&AdminHandler{bannedTimeRepo: store, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/banned-times?from=2030-06-01&to=2030-06-07", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		BannedTimes []models.BannedTime `json:"banned_times"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.BannedTimes) != 1 || body.BannedTimes[0].ID != 3 {
		t.Fatalf("unexpected body: %+v", body.BannedTimes)
	}
}

func TestLessonHistoryPaginates(t *testing.T) {
	store := &stubModifyHistoryStore{
		result: []models.ModifyHistory{{ID: 8, LessonID: 55, ChangeType: models.ChangeTypeAdminBooking}},
		total:  21,
	}
	lessons := &stubLessonStore{result: &models.Lesson{ID: 55}}
	app := newAdminTestApp(&AdminHandler{lessonRepo: lessons, historyRepo: store, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/lessons/55/history?page=2&limit=10", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if store.lastLesson != 55 || store.lastLimit != 10 || store.lastOffset != 10 {
		t.Fatalf("unexpected query: lesson=%d limit=%d offset=%d", store.lastLesson, store.lastLimit, store.lastOffset)
	}

	var body struct {
		History    []models.ModifyHistory `json:"history"`
		Pagination models.PaginationMeta  `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Pagination.Total != 21 || body.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination: %+v", body.Pagination)
	}
}

func TestLessonHistoryNotFoundForUnknownLesson(t *testing.T) {
	lessons := &stubLessonStore{err: pgx.ErrNoRows}
	app := newAdminTestApp(&AdminHandler{lessonRepo: lessons, historyRepo: &stubModifyHistoryStore{}, loc: time.UTC}, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/lessons/999/history", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
