package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kursadbilgin/dining-desk/internal/domain"
	"github.com/kursadbilgin/dining-desk/internal/observability"
	"github.com/kursadbilgin/dining-desk/internal/prompt"
	"github.com/kursadbilgin/dining-desk/internal/provider"
	"go.uber.org/zap"
)

const HuddleParseErrorMessage = "Could not parse response as JSON."

const (
	huddleOutcomeSuccess    = "success"
	huddleOutcomeParseError = "parse_error"
	huddleOutcomeError      = "service_error"
)

var audioExtensions = map[string]struct{}{
	".mp3": {},
	".wav": {},
	".m4a": {},
}

// HuddleService turns a morning huddle recording into a summary and action items.
type HuddleService struct {
	transcriber  provider.Transcriber
	generator    provider.Generator
	openAIAPIKey string
	cohereAPIKey string
	logger       *zap.Logger
	metrics      *observability.Metrics
}

func NewHuddleService(
	transcriber provider.Transcriber,
	generator provider.Generator,
	openAIAPIKey string,
	cohereAPIKey string,
	logger *zap.Logger,
) (*HuddleService, error) {
	if transcriber == nil {
		return nil, fmt.Errorf("transcriber is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HuddleService{
		transcriber:  transcriber,
		generator:    generator,
		openAIAPIKey: strings.TrimSpace(openAIAPIKey),
		cohereAPIKey: strings.TrimSpace(cohereAPIKey),
		logger:       logger,
	}, nil
}

func (s *HuddleService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Analyze transcribes the recording and asks the generator for a structured summary.
// Generation and parse failures are reported on the returned HuddleReport so the
// transcript is never lost.
func (s *HuddleService) Analyze(ctx context.Context, filename string, audio io.Reader) (*domain.HuddleReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := observability.WithContextLogger(s.logger, ctx)

	if err := ValidateAudioFilename(filename); err != nil {
		return nil, err
	}
	if s.openAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", domain.ErrConfiguration)
	}
	if s.cohereAPIKey == "" {
		return nil, fmt.Errorf("%w: COHERE_API_KEY is not set", domain.ErrConfiguration)
	}

	transcript, err := s.transcriber.Transcribe(ctx, s.openAIAPIKey, filepath.Base(filename), audio)
	if err != nil {
		s.metrics.IncHuddleAnalysis(huddleOutcomeError)
		return nil, fmt.Errorf("failed to transcribe huddle audio: %w", err)
	}

	report := &domain.HuddleReport{Transcript: transcript}

	raw, err := s.generator.Generate(ctx, s.cohereAPIKey, prompt.BuildHuddle(transcript))
	if err != nil {
		logger.Warn("huddle analysis failed", zap.Error(err))
		s.metrics.IncHuddleAnalysis(huddleOutcomeError)
		report.Error = fmt.Sprintf("Error analyzing transcript: %v", err)
		return report, nil
	}

	raw = strings.TrimSpace(raw)
	analysis, err := parseHuddleAnalysis(raw)
	if err != nil {
		logger.Warn("huddle analysis is not valid json", zap.Error(err))
		s.metrics.IncHuddleAnalysis(huddleOutcomeParseError)
		report.Error = HuddleParseErrorMessage
		report.RawText = raw
		return report, nil
	}

	s.metrics.IncHuddleAnalysis(huddleOutcomeSuccess)
	logger.Info("huddle analyzed",
		zap.Int("transcriptLength", len(transcript)),
		zap.Int("actionItems", len(analysis.ActionItems)),
	)
	report.Analysis = analysis
	return report, nil
}

// parseHuddleAnalysis decodes the model reply as a JSON object. When the strict
// decode fails it retries on the outermost {...} region with code fences removed.
func parseHuddleAnalysis(raw string) (*domain.HuddleAnalysis, error) {
	var analysis domain.HuddleAnalysis
	err := json.Unmarshal([]byte(raw), &analysis)
	if err == nil {
		return &analysis, nil
	}

	candidate, ok := extractObject(raw)
	if !ok {
		return nil, err
	}
	analysis = domain.HuddleAnalysis{}
	if fallbackErr := json.Unmarshal([]byte(candidate), &analysis); fallbackErr != nil {
		return nil, err
	}
	return &analysis, nil
}

func extractObject(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}

	cleaned := strings.Join(kept, "\n")
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}

func ValidateAudioFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if _, ok := audioExtensions[ext]; !ok {
		return fmt.Errorf("%w: unsupported audio file %q, expected mp3, wav or m4a", domain.ErrValidation, filename)
	}
	return nil
}
