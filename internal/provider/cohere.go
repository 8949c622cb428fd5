package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/dining-desk/internal/domain"
)

const (
	cohereService            = "cohere"
	DefaultCohereBaseURL     = "https://api.cohere.ai"
	DefaultCohereModel       = "command"
	defaultGenerationTimeout = 60 * time.Second

	generateMaxTokens         = 750
	generateTemperature       = 0.7
	generateTopK              = 0
	generateReturnLikelihoods = "NONE"
)

type cohereGenerateRequest struct {
	Model             string   `json:"model,omitempty"`
	Prompt            string   `json:"prompt"`
	MaxTokens         int      `json:"max_tokens"`
	Temperature       float64  `json:"temperature"`
	K                 int      `json:"k"`
	StopSequences     []string `json:"stop_sequences"`
	ReturnLikelihoods string   `json:"return_likelihoods"`
}

type cohereGenerateResponse struct {
	ID          string             `json:"id"`
	Generations []cohereGeneration `json:"generations"`
}

type cohereGeneration struct {
	Text string `json:"text"`
}

var _ Generator = (*CohereGenerator)(nil)

// CohereGenerator calls the Cohere generate endpoint with fixed sampling parameters.
type CohereGenerator struct {
	client   *resty.Client
	endpoint string
	model    string
}

func NewCohereGenerator(baseURL string, model string, timeout time.Duration) (*CohereGenerator, error) {
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewCohereGeneratorWithClient(baseURL, model, client)
}

func NewCohereGeneratorWithClient(baseURL string, model string, client *resty.Client) (*CohereGenerator, error) {
	endpoint, err := joinEndpoint(baseURL, DefaultCohereBaseURL, "/v1/generate")
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultGenerationTimeout)
	}
	client.SetRetryCount(0)

	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultCohereModel
	}

	return &CohereGenerator{
		client:   client,
		endpoint: endpoint,
		model:    model,
	}, nil
}

func (g *CohereGenerator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *CohereGenerator) Generate(ctx context.Context, apiKey string, prompt string) (string, error) {
	if g == nil || g.client == nil {
		return "", fmt.Errorf("generator is not initialized")
	}
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("%w: cohere api key is required", domain.ErrConfiguration)
	}

	reqBody := cohereGenerateRequest{
		Model:             g.model,
		Prompt:            prompt,
		MaxTokens:         generateMaxTokens,
		Temperature:       generateTemperature,
		K:                 generateTopK,
		StopSequences:     []string{},
		ReturnLikelihoods: generateReturnLikelihoods,
	}

	response, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(reqBody).
		Post(g.endpoint)
	if err := checkResponse(cohereService, response, err); err != nil {
		return "", err
	}

	var out cohereGenerateResponse
	if err := json.Unmarshal(response.Body(), &out); err != nil {
		return "", &ProviderError{
			Service:    cohereService,
			StatusCode: response.StatusCode(),
			Message:    "invalid response body",
			Cause:      err,
		}
	}
	if len(out.Generations) == 0 {
		return "", &ProviderError{
			Service:    cohereService,
			StatusCode: response.StatusCode(),
			Message:    "response contained no generations",
		}
	}

	return strings.TrimSpace(out.Generations[0].Text), nil
}

func joinEndpoint(baseURL string, fallback string, path string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = fallback
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	return base + path, nil
}
