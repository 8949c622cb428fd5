package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/dining-desk/internal/domain"
)

const (
	openAIService               = "openai"
	DefaultOpenAIBaseURL        = "https://api.openai.com"
	DefaultWhisperModel         = "whisper-1"
	defaultTranscriptionTimeout = 120 * time.Second
)

type whisperResponse struct {
	Text string `json:"text"`
}

var _ Transcriber = (*WhisperTranscriber)(nil)

// WhisperTranscriber uploads audio to the OpenAI transcription endpoint.
type WhisperTranscriber struct {
	client   *resty.Client
	endpoint string
	model    string
}

func NewWhisperTranscriber(baseURL string, timeout time.Duration) (*WhisperTranscriber, error) {
	if timeout <= 0 {
		timeout = defaultTranscriptionTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewWhisperTranscriberWithClient(baseURL, client)
}

func NewWhisperTranscriberWithClient(baseURL string, client *resty.Client) (*WhisperTranscriber, error) {
	endpoint, err := joinEndpoint(baseURL, DefaultOpenAIBaseURL, "/v1/audio/transcriptions")
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultTranscriptionTimeout)
	}
	client.SetRetryCount(0)

	return &WhisperTranscriber{
		client:   client,
		endpoint: endpoint,
		model:    DefaultWhisperModel,
	}, nil
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, apiKey string, filename string, audio io.Reader) (string, error) {
	if t == nil || t.client == nil {
		return "", fmt.Errorf("transcriber is not initialized")
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("%w: openai api key is required", domain.ErrConfiguration)
	}
	if audio == nil {
		return "", fmt.Errorf("%w: audio is required", domain.ErrValidation)
	}

	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." {
		name = "audio.mp3"
	}

	response, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetFileReader("file", name, audio).
		SetFormData(map[string]string{
			"model":           t.model,
			"response_format": "json",
		}).
		Post(t.endpoint)
	if err := checkResponse(openAIService, response, err); err != nil {
		return "", err
	}

	var out whisperResponse
	if err := json.Unmarshal(response.Body(), &out); err != nil {
		return "", &ProviderError{
			Service:    openAIService,
			StatusCode: response.StatusCode(),
			Message:    "invalid response body",
			Cause:      err,
		}
	}

	return strings.TrimSpace(out.Text), nil
}
