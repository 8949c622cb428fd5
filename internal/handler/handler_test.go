package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/dining-desk/internal/domain"
	"github.com/kursadbilgin/dining-desk/internal/service"
	"github.com/kursadbilgin/dining-desk/internal/transport"
	"go.uber.org/zap"
)

type stubDashboardService struct {
	listFn     func(ctx context.Context) []service.BucketSummary
	overviewFn func(ctx context.Context, key string) (*service.BucketOverview, error)
}

func (s *stubDashboardService) ListBuckets(ctx context.Context) []service.BucketSummary {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil
}

func (s *stubDashboardService) Overview(ctx context.Context, key string) (*service.BucketOverview, error) {
	if s.overviewFn != nil {
		return s.overviewFn(ctx, key)
	}
	return nil, domain.ErrNotFound
}

type stubFollowUpService struct {
	reportFn     func(ctx context.Context, key string) (*service.FollowUpResult, error)
	invalidateFn func(ctx context.Context, key string) error
}

func (s *stubFollowUpService) Report(ctx context.Context, key string) (*service.FollowUpResult, error) {
	if s.reportFn != nil {
		return s.reportFn(ctx, key)
	}
	return nil, domain.ErrNotFound
}

func (s *stubFollowUpService) Invalidate(ctx context.Context, key string) error {
	if s.invalidateFn != nil {
		return s.invalidateFn(ctx, key)
	}
	return nil
}

type stubHuddleService struct {
	analyzeFn func(ctx context.Context, filename string, audio io.Reader) (*domain.HuddleReport, error)
}

func (s *stubHuddleService) Analyze(ctx context.Context, filename string, audio io.Reader) (*domain.HuddleReport, error) {
	return s.analyzeFn(ctx, filename, audio)
}

type stubDatasetStatus int

func (s stubDatasetStatus) TotalDiners() int { return int(s) }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})
	app.Use(RequestID())
	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return doRequest(t, app, req)
}

func performUpload(t *testing.T, app *fiber.App, path string, field string, filename string, content []byte) (*http.Response, []byte) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("part.Write() error = %v", err)
		}
	} else if err := writer.WriteField("note", "no file"); err != nil {
		t.Fatalf("WriteField() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())

	return doRequest(t, app, req)
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

func decodeJSON(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json unmarshal error = %v, body=%s", err, string(body))
	}
	return out
}

func httptestRequest(method string, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
