package annotation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// HTTPProvider talks to a video-intelligence REST endpoint. Submitting a
// video returns a long-running operation handle which is polled until done.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	pollWait   time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

type HTTPProviderConfig struct {
	BaseURL  string
	APIKey   string
	PollWait time.Duration
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewHTTPProvider(cfg HTTPProviderConfig) *HTTPProvider {
	pollWait := cfg.PollWait
	if pollWait <= 0 {
		pollWait = 5 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPProvider{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pollWait: pollWait,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: cfg.Logger,
	}
}

type annotateResponse struct {
	Name string `json:"name"`
}

type operationResponse struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Response *operationInner `json:"response,omitempty"`
	Error    *operationError `json:"error,omitempty"`
}

type operationInner struct {
	AnnotationResults []AnnotationResult `json:"annotationResults"`
}

type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Annotate submits the request and polls the returned operation until it is
// done. The first annotation result is returned; the provider emits one
// result per input video.
func (p *HTTPProvider) Annotate(ctx context.Context, req AnnotateRequest) (*AnnotationResult, error) {
	opName, err := p.submit(ctx, req)
	if err != nil {
		return nil, err
	}

	p.logger.Info("annotation operation started", "operation", opName, "input_uri", req.InputURI)

	ticker := time.NewTicker(p.pollWait)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("annotation operation %s: %w", opName, ctx.Err())
		case <-ticker.C:
			op, err := p.poll(ctx, opName)
			if err != nil {
				return nil, err
			}
			if !op.Done {
				continue
			}
			if op.Error != nil {
				return nil, fmt.Errorf("annotation operation %s failed: %s", opName, op.Error.Message)
			}
			if op.Response == nil || len(op.Response.AnnotationResults) == 0 {
				return nil, fmt.Errorf("annotation operation %s returned no results", opName)
			}
			result := op.Response.AnnotationResults[0]
			return &result, nil
		}
	}
}

func (p *HTTPProvider) submit(ctx context.Context, req AnnotateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal annotate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/videos:annotate", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed annotateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode annotate response: %w", err)
	}
	if parsed.Name == "" {
		return "", fmt.Errorf("annotate response missing operation name")
	}
	return parsed.Name, nil
}

func (p *HTTPProvider) poll(ctx context.Context, opName string) (*operationResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/operations/%s", p.baseURL, url.PathEscape(opName))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create poll request: %w", err)
	}
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(respBody[:min(len(respBody), 4096)])}
	}

	var op operationResponse
	if err := json.Unmarshal(respBody, &op); err != nil {
		return nil, fmt.Errorf("decode operation response: %w", err)
	}
	return &op, nil
}
