package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"prompt-forge-server/modules/common/config"
)

// DefaultBaseURL - Replicate API root
const DefaultBaseURL = "https://api.replicate.com/v1"

// Service - image-generation bridge: submit a prediction, poll to terminal state
type Service struct {
	httpClient   *http.Client
	baseURL      string
	apiToken     string
	modelVersion string
	pollInterval time.Duration
	maxAttempts  int
}

// NewService - build the bridge from configuration
func NewService(cfg *config.Config) *Service {
	if cfg.ReplicateAPIToken == "" {
		log.Println("⚠️ [Replicate] REPLICATE_API_TOKEN not configured")
		return nil
	}

	log.Println("✅ [Replicate] Service initialized")
	return &Service{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		baseURL:      DefaultBaseURL,
		apiToken:     cfg.ReplicateAPIToken,
		modelVersion: cfg.ReplicateModelVersion,
		pollInterval: cfg.ReplicatePollInterval,
		maxAttempts:  cfg.ReplicateMaxAttempts,
	}
}

// SubmitAndAwait - run one generation-and-poll cycle, returning the result URL
// The model requires both reference images; a job missing one is rejected
// before any network call.
func (s *Service) SubmitAndAwait(ctx context.Context, job Job) (string, error) {
	if job.ReferenceImage1 == "" || job.ReferenceImage2 == "" {
		return "", fmt.Errorf("this model requires both input images, please select two reference images before generating")
	}

	prediction, err := s.submit(ctx, job)
	if err != nil {
		return "", err
	}

	log.Printf("🚀 [Replicate] Prediction created: %s", prediction.ID)
	return s.await(ctx, prediction)
}

// submit - create the prediction
func (s *Service) submit(ctx context.Context, job Job) (*Prediction, error) {
	body := createPredictionRequest{
		Version: s.modelVersion,
		Input: PredictionInput{
			Prompt:      job.PromptText,
			AspectRatio: job.AspectRatio,
			InputImage1: job.ReferenceImage1,
			InputImage2: job.ReferenceImage2,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/predictions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Token "+s.apiToken)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create prediction: %d %s", resp.StatusCode, string(bodyBytes))
	}

	var prediction Prediction
	if err := json.Unmarshal(bodyBytes, &prediction); err != nil {
		return nil, fmt.Errorf("failed to parse prediction: %w", err)
	}

	return &prediction, nil
}

// await - poll the prediction at a fixed interval until a terminal state
// A 429 poll response extends the wait instead of aborting.
func (s *Service) await(ctx context.Context, prediction *Prediction) (string, error) {
	pollURL := prediction.URLs.Get
	if pollURL == "" {
		pollURL = s.baseURL + "/predictions/" + prediction.ID
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := sleepCtx(ctx, s.pollInterval); err != nil {
			return "", err
		}

		polled, status, err := s.poll(ctx, pollURL)
		if err != nil {
			return "", err
		}
		if status == http.StatusTooManyRequests {
			log.Printf("⚠️ [Replicate] Rate limited on poll attempt %d, waiting longer", attempt)
			if err := sleepCtx(ctx, s.pollInterval*2); err != nil {
				return "", err
			}
			continue
		}

		log.Printf("🔍 [Replicate] Poll attempt %d: status=%s", attempt, polled.Status)

		switch polled.Status {
		case StatusSucceeded:
			return extractOutput(polled.Output)
		case StatusFailed:
			return "", fmt.Errorf("prediction failed: %s", errorText(polled.Error))
		case StatusCanceled:
			return "", fmt.Errorf("prediction was canceled")
		}
	}

	return "", fmt.Errorf("prediction timed out after %d polling attempts", s.maxAttempts)
}

// poll - fetch the prediction state once
// A 429 is reported via the status code, every other non-OK status is an error.
func (s *Service) poll(ctx context.Context, pollURL string) (*Prediction, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", pollURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+s.apiToken)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("polling error: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read poll response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("polling error: %d %s", resp.StatusCode, string(bodyBytes))
	}

	var prediction Prediction
	if err := json.Unmarshal(bodyBytes, &prediction); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to parse poll response: %w", err)
	}

	return &prediction, resp.StatusCode, nil
}

// extractOutput - first element of an output list, or a bare string output
// Any other shape is a hard error.
func extractOutput(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("prediction succeeded, but output format is unexpected")
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", fmt.Errorf("prediction succeeded, but output format is unexpected")
		}
		return list[0], nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}

	return "", fmt.Errorf("prediction succeeded, but output format is unexpected")
}

// errorText - stringify the prediction's raw error field
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "Unknown error"
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// sleepCtx - context-aware sleep
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
