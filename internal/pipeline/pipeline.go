// Package pipeline runs the full analysis for one video: annotate, reduce,
// generate a listing, persist. It is invoked only from the single-flight
// queue, one job at a time.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/AuraOfDivinity/gcs-video-analysis/internal/analysis"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/annotation"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/listing"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/queue"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/store"
)

// Response is the payload returned to the caller whose delivery triggered
// the job.
type Response struct {
	FileName    string           `json:"fileName"`
	RecordID    string           `json:"recordId"`
	RawRecordID string           `json:"rawRecordId"`
	Listing     *listing.Listing `json:"listing"`
	Transcript  string           `json:"transcript"`
	ProcessedAt time.Time        `json:"processedAt"`
}

type Processor struct {
	provider    annotation.Provider
	generator   listing.Generator
	records     store.RecordStore
	summaryOpts analysis.SummaryOptions
	annTimeout  time.Duration
	logger      *slog.Logger
}

type ProcessorConfig struct {
	Provider          annotation.Provider
	Generator         listing.Generator
	Records           store.RecordStore
	SummaryOptions    analysis.SummaryOptions
	AnnotationTimeout time.Duration
	Logger            *slog.Logger
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	timeout := cfg.AnnotationTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Processor{
		provider:    cfg.Provider,
		generator:   cfg.Generator,
		records:     cfg.Records,
		summaryOpts: cfg.SummaryOptions,
		annTimeout:  timeout,
		logger:      cfg.Logger,
	}
}

var annotationFeatures = []annotation.Feature{
	annotation.FeatureSpeechTranscription,
	annotation.FeatureObjectTracking,
	annotation.FeatureLabelDetection,
	annotation.FeatureTextDetection,
}

// Process implements queue.ProcessFunc.
func (p *Processor) Process(ctx context.Context, job queue.Job) (json.RawMessage, error) {
	inputURI := fmt.Sprintf("gs://%s/%s", job.Bucket, job.FileName)
	logger := p.logger.With("file", job.FileName)

	annCtx, cancel := context.WithTimeout(ctx, p.annTimeout)
	defer cancel()

	result, err := p.provider.Annotate(annCtx, annotation.AnnotateRequest{
		InputURI: inputURI,
		Features: annotationFeatures,
	})
	if err != nil {
		return nil, fmt.Errorf("annotate %s: %w", inputURI, err)
	}

	rawPayload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal annotation result: %w", err)
	}
	rawID := p.records.StoreRaw(ctx, job.FileName, rawPayload)

	summary, err := analysis.BuildSummary(result, p.summaryOpts)
	if err != nil {
		return nil, fmt.Errorf("reduce annotations for %s: %w", job.FileName, err)
	}

	generated, err := p.generator.Generate(ctx, summary.PromptText())
	if err != nil {
		return nil, fmt.Errorf("generate listing for %s: %w", job.FileName, err)
	}

	resp := Response{
		FileName:    job.FileName,
		RawRecordID: rawID,
		Listing:     generated,
		Transcript:  summary.Transcript,
		ProcessedAt: time.Now().UTC(),
	}

	listingPayload, err := json.Marshal(generated)
	if err != nil {
		return nil, fmt.Errorf("marshal listing: %w", err)
	}
	resp.RecordID = p.records.StoreProcessed(ctx, job.FileName, rawID, job.DriveFileID, listingPayload)

	logger.Info("video processed",
		"record_id", resp.RecordID,
		"raw_record_id", rawID,
		"transcript_chars", len(summary.Transcript),
	)

	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return payload, nil
}
