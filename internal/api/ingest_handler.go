package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/AuraOfDivinity/gcs-video-analysis/internal/metrics"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/queue"
)

// ingestHandler decodes a delivery, applies the queue's admission policy and
// holds the connection open until the job reaches a terminal state. Every
// short-circuit is an HTTP success so the delivery transport does not
// redeliver.
func ingestHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var envelope PushEnvelope
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			cfg.Metrics.Deliveries.WithLabelValues(metrics.OutcomeMalformed).Inc()
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		job, ok := decodeJob(envelope)
		if !ok {
			cfg.Metrics.Deliveries.WithLabelValues(metrics.OutcomeMalformed).Inc()
			WriteError(w, http.StatusBadRequest, "malformed delivery payload", "BAD_REQUEST")
			return
		}
		if job.FileName == "" {
			cfg.Metrics.Deliveries.WithLabelValues(metrics.OutcomeMalformed).Inc()
			WriteError(w, http.StatusBadRequest, "file name is required", "BAD_REQUEST")
			return
		}

		future, admission := cfg.Queue.Enqueue(job)
		switch admission {
		case queue.Admitted:
			cfg.Metrics.Deliveries.WithLabelValues(metrics.OutcomeAccepted).Inc()

		case queue.QueueFull:
			cfg.Metrics.Deliveries.WithLabelValues(metrics.OutcomeQueueFull).Inc()
			WriteError(w, http.StatusTooManyRequests, "processing queue is full", "QUEUE_FULL")
			return

		case queue.NotVideo:
			cfg.Metrics.Deliveries.WithLabelValues(metrics.OutcomeNotVideo).Inc()
			WriteJSON(w, http.StatusOK, IngestAck{Status: admission.String(), FileName: job.FileName})
			return

		default:
			// DuplicateDelivery, AlreadyProcessed, PreviouslyFailed,
			// AlreadyQueued: acknowledged, never (re)processed.
			cfg.Metrics.Deliveries.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			WriteJSON(w, http.StatusOK, IngestAck{Status: admission.String(), FileName: job.FileName})
			return
		}

		result, err := future.Wait(r.Context())
		if err != nil {
			// Caller went away; the job still runs to completion.
			cfg.Logger.Warn("caller disconnected before job completion", "file", job.FileName, "error", err)
			return
		}
		if result.Err != nil {
			WriteError(w, http.StatusInternalServerError, result.Err.Error(), "PROCESSING_ERROR")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(result.Payload)
	}
}

// decodeJob extracts the job description from either delivery shape. A push
// envelope's data must be valid base64-wrapped JSON.
func decodeJob(envelope PushEnvelope) (queue.Job, bool) {
	if envelope.Message == nil {
		return queue.Job{
			Bucket:      envelope.Bucket,
			FileName:    envelope.Name,
			DriveFileID: envelope.DriveFileID,
		}, true
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		return queue.Job{}, false
	}

	var req JobRequest
	if err := json.Unmarshal(decoded, &req); err != nil {
		return queue.Job{}, false
	}

	return queue.Job{
		Bucket:      req.Bucket,
		FileName:    req.Name,
		DriveFileID: req.DriveFileID,
		DeliveryID:  envelope.Message.MessageID,
	}, true
}
