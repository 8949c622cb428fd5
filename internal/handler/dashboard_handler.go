package handler

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/dining-desk/internal/domain"
	"github.com/kursadbilgin/dining-desk/internal/export"
	"github.com/kursadbilgin/dining-desk/internal/followup"
	"github.com/kursadbilgin/dining-desk/internal/service"
)

type DashboardService interface {
	ListBuckets(ctx context.Context) []service.BucketSummary
	Overview(ctx context.Context, key string) (*service.BucketOverview, error)
}

type FollowUpService interface {
	Report(ctx context.Context, key string) (*service.FollowUpResult, error)
	Invalidate(ctx context.Context, key string) error
}

type DashboardHandler struct {
	dashboard DashboardService
	followUps FollowUpService
}

func NewDashboardHandler(dashboard DashboardService, followUps FollowUpService) (*DashboardHandler, error) {
	if dashboard == nil {
		return nil, fmt.Errorf("dashboard service is required")
	}
	if followUps == nil {
		return nil, fmt.Errorf("follow-up service is required")
	}
	return &DashboardHandler{dashboard: dashboard, followUps: followUps}, nil
}

func RegisterDashboardRoutes(router fiber.Router, dashboard DashboardService, followUps FollowUpService) error {
	h, err := NewDashboardHandler(dashboard, followUps)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/buckets", h.ListBuckets)
	v1.Get("/buckets/:key/overview", h.GetOverview)
	v1.Get("/buckets/:key/export.xlsx", h.ExportOverview)
	v1.Get("/buckets/:key/followups", h.GetFollowUps)
	v1.Delete("/buckets/:key/followups", h.InvalidateFollowUps)

	return nil
}

type listBucketsResponse struct {
	Data []service.BucketSummary `json:"data"`
}

type followUpsResponse struct {
	Outcome   string               `json:"outcome"`
	Text      string               `json:"text"`
	FollowUps []domain.FollowUp    `json:"followUps"`
	Batches   []domain.BatchResult `json:"batches"`
	Stats     followup.Stats       `json:"stats"`
	Failed    int                  `json:"failedBatches"`
	Cached    bool                 `json:"cached"`
}

func (h *DashboardHandler) ListBuckets(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(listBucketsResponse{
		Data: h.dashboard.ListBuckets(c.UserContext()),
	})
}

func (h *DashboardHandler) GetOverview(c *fiber.Ctx) error {
	overview, err := h.dashboard.Overview(c.UserContext(), c.Params("key"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(overview)
}

func (h *DashboardHandler) ExportOverview(c *fiber.Ctx) error {
	overview, err := h.dashboard.Overview(c.UserContext(), c.Params("key"))
	if err != nil {
		return toHTTPError(err)
	}

	var buf bytes.Buffer
	if err := export.WriteReservations(&buf, overview.Overview); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="reservations-%s.xlsx"`, overview.Bucket.Key))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

func (h *DashboardHandler) GetFollowUps(c *fiber.Ctx) error {
	result, err := h.followUps.Report(c.UserContext(), c.Params("key"))
	if err != nil {
		return toHTTPError(err)
	}

	report := result.Report
	followUps := report.FollowUps
	if followUps == nil {
		followUps = []domain.FollowUp{}
	}
	batches := report.Batches
	if batches == nil {
		batches = []domain.BatchResult{}
	}

	return c.Status(fiber.StatusOK).JSON(followUpsResponse{
		Outcome:   report.Outcome.String(),
		Text:      report.Text,
		FollowUps: followUps,
		Batches:   batches,
		Stats:     report.Stats,
		Failed:    report.FailedBatches(),
		Cached:    result.Cached,
	})
}

func (h *DashboardHandler) InvalidateFollowUps(c *fiber.Ctx) error {
	if err := h.followUps.Invalidate(c.UserContext(), c.Params("key")); err != nil {
		return toHTTPError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
