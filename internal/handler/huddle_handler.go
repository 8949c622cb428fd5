package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/dining-desk/internal/domain"
)

const audioFormField = "audio"

type HuddleService interface {
	Analyze(ctx context.Context, filename string, audio io.Reader) (*domain.HuddleReport, error)
}

type HuddleHandler struct {
	service HuddleService
}

func NewHuddleHandler(service HuddleService) (*HuddleHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("huddle service is required")
	}
	return &HuddleHandler{service: service}, nil
}

func RegisterHuddleRoutes(router fiber.Router, service HuddleService) error {
	h, err := NewHuddleHandler(service)
	if err != nil {
		return err
	}

	router.Group("/v1").Post("/huddle", h.AnalyzeHuddle)
	return nil
}

type huddleResponse struct {
	Transcript  string   `json:"transcript"`
	Summary     string   `json:"summary,omitempty"`
	ActionItems []string `json:"actionItems,omitempty"`
	Error       string   `json:"error,omitempty"`
	RawText     string   `json:"rawText,omitempty"`
}

func (h *HuddleHandler) AnalyzeHuddle(c *fiber.Ctx) error {
	header, err := c.FormFile(audioFormField)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field \"audio\" is required")
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded audio: %w", err)
	}
	defer file.Close()

	report, err := h.service.Analyze(c.UserContext(), header.Filename, file)
	if err != nil {
		return toHTTPError(err)
	}

	resp := huddleResponse{
		Transcript: report.Transcript,
		Error:      report.Error,
		RawText:    report.RawText,
	}
	if report.Analysis != nil {
		resp.Summary = report.Analysis.Summary
		resp.ActionItems = report.Analysis.ActionItems
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
