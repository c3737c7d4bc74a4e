package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AuraOfDivinity/gcs-video-analysis/internal/metrics"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/queue"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubRecords struct{}

func (stubRecords) StoreRaw(ctx context.Context, fileName string, payload []byte) string {
	return "raw-1"
}

func (stubRecords) StoreProcessed(ctx context.Context, fileName, rawID, driveFileID string, payload []byte) string {
	return "proc-1"
}

func (stubRecords) GetProcessed(ctx context.Context, id string) (*store.ProcessedRecord, error) {
	return nil, nil
}

func (stubRecords) ListProcessed(ctx context.Context, limit int) ([]*store.ProcessedRecord, error) {
	return []*store.ProcessedRecord{
		{ID: "proc-1", FileName: "walkthrough.mp4", RawID: "raw-1", CreatedAt: time.Now()},
	}, nil
}

func testServerConfig(t *testing.T, process queue.ProcessFunc, opts queue.Options) ServerConfig {
	t.Helper()
	m := metrics.New()
	opts.Metrics = m
	opts.Logger = testLogger()
	q := queue.New(process, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return ServerConfig{
		Queue:     q,
		Records:   stubRecords{},
		Metrics:   m,
		Logger:    testLogger(),
		StartTime: time.Now(),
	}
}

func postJSON(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rr.Body.String())
	}
	return body
}

func TestIngest_RawJob_Processed(t *testing.T) {
	var calls atomic.Int32
	cfg := testServerConfig(t, func(ctx context.Context, job queue.Job) (json.RawMessage, error) {
		calls.Add(1)
		return json.RawMessage(`{"fileName":"` + job.FileName + `","listing":{"propertyDetails":{"rooms":"kitchen"}}}`), nil
	}, queue.Options{})
	router := NewRouter(cfg)

	rr := postJSON(t, router, `{"bucket":"b","name":"walkthrough.mp4"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	body := decodeJSONBody(t, rr)
	listing, ok := body["listing"].(map[string]interface{})
	if !ok {
		t.Fatalf("listing missing from response: %v", body)
	}
	if _, ok := listing["propertyDetails"]; !ok {
		t.Error("propertyDetails missing from listing")
	}

	// Second identical delivery short-circuits without reprocessing.
	rr = postJSON(t, router, `{"bucket":"b","name":"walkthrough.mp4"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", rr.Code)
	}
	body = decodeJSONBody(t, rr)
	if body["status"] != "already processed" {
		t.Errorf("status = %v, want already processed", body["status"])
	}
	if calls.Load() != 1 {
		t.Errorf("process calls = %d, want 1", calls.Load())
	}
}

func TestIngest_PushEnvelope_DeliveryIDDedup(t *testing.T) {
	var calls atomic.Int32
	cfg := testServerConfig(t, func(ctx context.Context, job queue.Job) (json.RawMessage, error) {
		calls.Add(1)
		return json.RawMessage(`{}`), nil
	}, queue.Options{})
	router := NewRouter(cfg)

	payload := base64.StdEncoding.EncodeToString([]byte(`{"bucket":"b","name":"tour.mp4"}`))
	envelope := `{"message":{"data":"` + payload + `","messageId":"msg-7"}}`

	rr := postJSON(t, router, envelope)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	// Same messageId with a different file name: still acknowledged, not run.
	payload2 := base64.StdEncoding.EncodeToString([]byte(`{"bucket":"b","name":"other.mp4"}`))
	rr = postJSON(t, router, `{"message":{"data":"`+payload2+`","messageId":"msg-7"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want 200", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "duplicate delivery" {
		t.Errorf("status = %v, want duplicate delivery", body["status"])
	}
	if calls.Load() != 1 {
		t.Errorf("process calls = %d, want 1", calls.Load())
	}
}

func TestIngest_MalformedEnvelope(t *testing.T) {
	var calls atomic.Int32
	cfg := testServerConfig(t, func(ctx context.Context, job queue.Job) (json.RawMessage, error) {
		calls.Add(1)
		return nil, nil
	}, queue.Options{})
	router := NewRouter(cfg)

	cases := []string{
		`not json at all`,
		`{"message":{"data":"!!!not-base64!!!","messageId":"m1"}}`,
		`{"message":{"data":"` + base64.StdEncoding.EncodeToString([]byte("not json")) + `","messageId":"m2"}}`,
		`{"bucket":"b"}`, // missing file name
	}
	for _, body := range cases {
		rr := postJSON(t, router, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rr.Code)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("process calls = %d, want 0", calls.Load())
	}
}

func TestIngest_NotAVideo(t *testing.T) {
	var calls atomic.Int32
	cfg := testServerConfig(t, func(ctx context.Context, job queue.Job) (json.RawMessage, error) {
		calls.Add(1)
		return nil, nil
	}, queue.Options{})
	router := NewRouter(cfg)

	rr := postJSON(t, router, `{"bucket":"b","name":"photo.jpg"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "not a video" {
		t.Errorf("status = %v, want not a video", body["status"])
	}
	if calls.Load() != 0 {
		t.Errorf("process calls = %d, want 0 (provider never invoked)", calls.Load())
	}
}

func TestIngest_QueueFull(t *testing.T) {
	release := make(chan struct{})
	cfg := testServerConfig(t, func(ctx context.Context, job queue.Job) (json.RawMessage, error) {
		<-release
		return json.RawMessage(`{}`), nil
	}, queue.Options{Capacity: 1})
	defer close(release)
	router := NewRouter(cfg)

	// Occupy the worker, then fill the single wait slot.
	go postJSON(t, router, `{"bucket":"b","name":"running.mp4"}`)
	time.Sleep(20 * time.Millisecond)
	go postJSON(t, router, `{"bucket":"b","name":"waiting.mp4"}`)
	time.Sleep(20 * time.Millisecond)

	rr := postJSON(t, router, `{"bucket":"b","name":"overflow.mp4"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429: %s", rr.Code, rr.Body.String())
	}
}

func TestIngest_ProcessingError(t *testing.T) {
	cfg := testServerConfig(t, func(ctx context.Context, job queue.Job) (json.RawMessage, error) {
		return nil, context.DeadlineExceeded
	}, queue.Options{})
	router := NewRouter(cfg)

	rr := postJSON(t, router, `{"bucket":"b","name":"broken.mp4"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}

	// The failed file is permanently excluded from reprocessing.
	rr = postJSON(t, router, `{"bucket":"b","name":"broken.mp4"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "previously failed" {
		t.Errorf("status = %v, want previously failed", body["status"])
	}
}

func TestHealthHandler(t *testing.T) {
	cfg := testServerConfig(t, func(ctx context.Context, job queue.Job) (json.RawMessage, error) {
		return json.RawMessage(`{}`), nil
	}, queue.Options{})
	router := NewRouter(cfg)

	rr := postJSON(t, router, `{"bucket":"b","name":"done.mp4"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("ingest status = %d", rr.Code)
	}

	hr := httptest.NewRecorder()
	router.ServeHTTP(hr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if hr.Code != http.StatusOK {
		t.Fatalf("health status = %d", hr.Code)
	}

	body := decodeJSONBody(t, hr)
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
	processed, ok := body["processedFiles"].([]interface{})
	if !ok || len(processed) != 1 || processed[0] != "done.mp4" {
		t.Errorf("processedFiles = %v, want [done.mp4]", body["processedFiles"])
	}
	if _, ok := body["queueLength"]; !ok {
		t.Error("queueLength missing")
	}
}

func TestListRecordsHandler(t *testing.T) {
	cfg := testServerConfig(t, func(ctx context.Context, job queue.Job) (json.RawMessage, error) {
		return nil, nil
	}, queue.Options{})
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/records", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp RecordsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Records) != 1 || resp.Records[0].FileName != "walkthrough.mp4" {
		t.Errorf("records = %+v", resp.Records)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := testServerConfig(t, func(ctx context.Context, job queue.Job) (json.RawMessage, error) {
		return nil, nil
	}, queue.Options{})
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}
