package annotation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHTTPProvider_Annotate_PollsUntilDone(t *testing.T) {
	var polls atomic.Int32
	var receivedReq AnnotateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/videos:annotate":
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &receivedReq)
			json.NewEncoder(w).Encode(annotateResponse{Name: "op-123"})

		case "/v1/operations/op-123":
			n := polls.Add(1)
			if n < 3 {
				json.NewEncoder(w).Encode(operationResponse{Name: "op-123", Done: false})
				return
			}
			json.NewEncoder(w).Encode(operationResponse{
				Name: "op-123",
				Done: true,
				Response: &operationInner{
					AnnotationResults: []AnnotationResult{
						{SegmentLabelAnnotations: []LabelAnnotation{{Entity: Entity{Description: "kitchen"}}}},
					},
				},
			})

		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	provider := NewHTTPProvider(HTTPProviderConfig{
		BaseURL:  server.URL,
		APIKey:   "test-key",
		PollWait: 10 * time.Millisecond,
		Logger:   testLogger(),
	})

	result, err := provider.Annotate(context.Background(), AnnotateRequest{
		InputURI: "gs://bucket/walkthrough.mp4",
		Features: []Feature{FeatureLabelDetection},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedReq.InputURI != "gs://bucket/walkthrough.mp4" {
		t.Errorf("inputUri = %q", receivedReq.InputURI)
	}
	if len(result.SegmentLabelAnnotations) != 1 {
		t.Fatalf("labels = %d, want 1", len(result.SegmentLabelAnnotations))
	}
	if polls.Load() < 3 {
		t.Errorf("polls = %d, want at least 3", polls.Load())
	}
}

func TestHTTPProvider_Annotate_OperationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/videos:annotate" {
			json.NewEncoder(w).Encode(annotateResponse{Name: "op-err"})
			return
		}
		json.NewEncoder(w).Encode(operationResponse{
			Name:  "op-err",
			Done:  true,
			Error: &operationError{Code: 13, Message: "decode failure"},
		})
	}))
	defer server.Close()

	provider := NewHTTPProvider(HTTPProviderConfig{
		BaseURL:  server.URL,
		PollWait: 10 * time.Millisecond,
		Logger:   testLogger(),
	})

	_, err := provider.Annotate(context.Background(), AnnotateRequest{InputURI: "gs://b/f.mp4"})
	if err == nil {
		t.Fatal("expected error for failed operation")
	}
}

func TestHTTPProvider_Annotate_SubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(HTTPProviderConfig{
		BaseURL:  server.URL,
		PollWait: 10 * time.Millisecond,
		Logger:   testLogger(),
	})

	_, err := provider.Annotate(context.Background(), AnnotateRequest{InputURI: "gs://b/f.mp4"})

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if provErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", provErr.StatusCode)
	}
	if provErr.IsRetryable() {
		t.Error("4xx should not be retryable")
	}
}

func TestHTTPProvider_Annotate_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/videos:annotate" {
			json.NewEncoder(w).Encode(annotateResponse{Name: "op-slow"})
			return
		}
		json.NewEncoder(w).Encode(operationResponse{Name: "op-slow", Done: false})
	}))
	defer server.Close()

	provider := NewHTTPProvider(HTTPProviderConfig{
		BaseURL:  server.URL,
		PollWait: 10 * time.Millisecond,
		Logger:   testLogger(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := provider.Annotate(ctx, AnnotateRequest{InputURI: "gs://b/f.mp4"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}
