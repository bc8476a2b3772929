package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestSaveObject(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", "https://storage.example/summit.jpg", "proof_photo").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := svc.SaveObject(context.Background(), "user-1", "https://storage.example/summit.jpg", "proof_photo")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}
}

func TestSaveObjectError(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", "https://storage.example/summit.jpg", "proof_photo").
		WillReturnError(errors.New("insert failed"))

	if _, err := svc.SaveObject(context.Background(), "user-1", "https://storage.example/summit.jpg", "proof_photo"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUploadHandler(t *testing.T) {
	mock := newMock(t)
	app := fiber.New()
	auth := func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	}
	RegisterRoutes(app.Group("/storage"), NewService(mock), auth)

	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", "https://storage.example/summit.jpg", "proof_photo").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	body := `{"file_name":"summit.jpg"}`
	req := httptest.NewRequest("POST", "/storage/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var payload struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.ID == "" || payload.URL != "https://storage.example/summit.jpg" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
