package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

var errProfile = errors.New("profile error")

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestCompletionApprovedAwardsBadge(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`INSERT INTO user_stats`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"completed_trails"}).AddRow(5))
	mock.ExpectQuery(`INSERT INTO user_badges`).
		WithArgs("user-1", 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "min_completions"}).
			AddRow("badge-5", "Pathfinder", "five trails completed", 5))

	if err := svc.CompletionApproved(context.Background(), "user-1", "trail-1"); err != nil {
		t.Fatalf("completion approved: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCompletionApprovedNoNewBadges(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`INSERT INTO user_stats`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"completed_trails"}).AddRow(3))
	mock.ExpectQuery(`INSERT INTO user_badges`).
		WithArgs("user-1", 3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "min_completions"}))

	if err := svc.CompletionApproved(context.Background(), "user-1", "trail-1"); err != nil {
		t.Fatalf("completion approved: %v", err)
	}
}

func TestCompletionApprovedIncrementError(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`INSERT INTO user_stats`).
		WithArgs("user-1").
		WillReturnError(errProfile)

	if err := svc.CompletionApproved(context.Background(), "user-1", "trail-1"); !errors.Is(err, errProfile) {
		t.Fatalf("expected errProfile, got %v", err)
	}
}

func TestEvaluateBadgesReturnsNewlyEarned(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`INSERT INTO user_badges`).
		WithArgs("user-1", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "min_completions"}).
			AddRow("badge-10", "Trailblazer", "ten trails completed", 10))

	earned, err := svc.EvaluateBadges(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(earned) != 1 || earned[0].ID != "badge-10" {
		t.Fatalf("unexpected badges: %+v", earned)
	}
}

func TestStatsZeroForNewUser(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`FROM user_stats WHERE user_id=\$1`).
		WithArgs("user-new").
		WillReturnRows(pgxmock.NewRows([]string{"completed_trails"}))

	stats, err := svc.Stats(context.Background(), "user-new")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.CompletedTrails != 0 || stats.UserID != "user-new" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestStatsHandler(t *testing.T) {
	mock := newMock(t)
	app := fiber.New()
	auth := func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	}
	RegisterRoutes(app.Group("/profile"), NewService(mock), auth)

	mock.ExpectQuery(`FROM user_stats WHERE user_id=\$1`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"completed_trails"}).AddRow(7))

	req := httptest.NewRequest("GET", "/profile/stats", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.CompletedTrails != 7 {
		t.Fatalf("completed = %d, want 7", stats.CompletedTrails)
	}
}

func TestBadgesHandler(t *testing.T) {
	mock := newMock(t)
	app := fiber.New()
	auth := func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	}
	RegisterRoutes(app.Group("/profile"), NewService(mock), auth)

	mock.ExpectQuery(`FROM user_badges ub JOIN badges b`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "min_completions", "earned_at"}).
			AddRow("badge-first", "First Summit", "first trail completed", 1, time.Now()))

	req := httptest.NewRequest("GET", "/profile/badges", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var badges []Badge
	if err := json.NewDecoder(resp.Body).Decode(&badges); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(badges) != 1 || badges[0].Name != "First Summit" {
		t.Fatalf("unexpected badges: %+v", badges)
	}
}
