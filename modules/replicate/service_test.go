package replicate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testService(baseURL string, maxAttempts int) *Service {
	return &Service{
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		baseURL:      baseURL,
		apiToken:     "test-token",
		modelVersion: "test-version",
		pollInterval: time.Millisecond,
		maxAttempts:  maxAttempts,
	}
}

func testJob() Job {
	return Job{
		PromptText:      "a red jacket on a mannequin",
		AspectRatio:     "1:1",
		ReferenceImage1: "data:image/png;base64,AAAA",
		ReferenceImage2: "data:image/png;base64,BBBB",
	}
}

// predictionServer - scripted submit endpoint plus a poll status sequence
func predictionServer(t *testing.T, pollBodies []string) *httptest.Server {
	t.Helper()
	var pollCount int64

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("submit method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Token test-token" {
			t.Errorf("Authorization = %q", got)
		}

		var req createPredictionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("submit body: %v", err)
		}
		if req.Version != "test-version" {
			t.Errorf("version = %q", req.Version)
		}
		if req.Input.InputImage1 == "" || req.Input.InputImage2 == "" {
			t.Error("submit must carry both input images")
		}

		fmt.Fprintf(w, `{"id":"pred-1","status":"starting","urls":{"get":"%s/predictions/pred-1"}}`, server.URL)
	})

	mux.HandleFunc("/predictions/pred-1", func(w http.ResponseWriter, r *http.Request) {
		idx := int(atomic.AddInt64(&pollCount, 1)) - 1
		if idx >= len(pollBodies) {
			idx = len(pollBodies) - 1
		}
		body := pollBodies[idx]
		if body == "RATE_LIMIT" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, body)
	})

	server = httptest.NewServer(mux)
	return server
}

func TestSubmitAndAwaitSucceeds(t *testing.T) {
	server := predictionServer(t, []string{
		`{"id":"pred-1","status":"processing"}`,
		`{"id":"pred-1","status":"succeeded","output":["https://x/img.png"]}`,
	})
	defer server.Close()

	url, err := testService(server.URL, 10).SubmitAndAwait(context.Background(), testJob())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://x/img.png" {
		t.Fatalf("url = %q, want https://x/img.png", url)
	}
}

func TestSubmitAndAwaitBareStringOutput(t *testing.T) {
	server := predictionServer(t, []string{
		`{"id":"pred-1","status":"succeeded","output":"https://x/single.png"}`,
	})
	defer server.Close()

	url, err := testService(server.URL, 10).SubmitAndAwait(context.Background(), testJob())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://x/single.png" {
		t.Fatalf("url = %q", url)
	}
}

func TestSubmitAndAwaitUnexpectedOutputShape(t *testing.T) {
	server := predictionServer(t, []string{
		`{"id":"pred-1","status":"succeeded","output":{"nested":"object"}}`,
	})
	defer server.Close()

	_, err := testService(server.URL, 10).SubmitAndAwait(context.Background(), testJob())
	if err == nil || !strings.Contains(err.Error(), "output format is unexpected") {
		t.Fatalf("expected output-shape error, got %v", err)
	}
}

func TestSubmitAndAwaitFailedStatusCarriesJobError(t *testing.T) {
	server := predictionServer(t, []string{
		`{"id":"pred-1","status":"failed","error":"NSFW content detected"}`,
	})
	defer server.Close()

	_, err := testService(server.URL, 10).SubmitAndAwait(context.Background(), testJob())
	if err == nil {
		t.Fatal("expected error for failed prediction")
	}
	if !strings.Contains(err.Error(), "NSFW content detected") {
		t.Fatalf("error must carry the job's error field, got %v", err)
	}
}

func TestSubmitAndAwaitCanceled(t *testing.T) {
	server := predictionServer(t, []string{
		`{"id":"pred-1","status":"canceled"}`,
	})
	defer server.Close()

	_, err := testService(server.URL, 10).SubmitAndAwait(context.Background(), testJob())
	if err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestSubmitAndAwaitRateLimitExtendsWait(t *testing.T) {
	server := predictionServer(t, []string{
		"RATE_LIMIT",
		`{"id":"pred-1","status":"succeeded","output":["https://x/img.png"]}`,
	})
	defer server.Close()

	url, err := testService(server.URL, 10).SubmitAndAwait(context.Background(), testJob())
	if err != nil {
		t.Fatalf("rate limit must be recoverable, got %v", err)
	}
	if url != "https://x/img.png" {
		t.Fatalf("url = %q", url)
	}
}

func TestSubmitAndAwaitTimesOut(t *testing.T) {
	server := predictionServer(t, []string{
		`{"id":"pred-1","status":"processing"}`,
	})
	defer server.Close()

	_, err := testService(server.URL, 3).SubmitAndAwait(context.Background(), testJob())
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestSubmitRejectsMissingReferenceImageBeforeNetwork(t *testing.T) {
	var hit int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hit, 1)
	}))
	defer server.Close()

	job := testJob()
	job.ReferenceImage2 = ""

	_, err := testService(server.URL, 10).SubmitAndAwait(context.Background(), job)
	if err == nil {
		t.Fatal("expected rejection for missing second reference image")
	}
	if atomic.LoadInt64(&hit) != 0 {
		t.Fatal("rejection must happen before any network call")
	}
}
