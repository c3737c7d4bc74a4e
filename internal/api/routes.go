package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AuraOfDivinity/gcs-video-analysis/internal/config"
	"github.com/AuraOfDivinity/gcs-video-analysis/internal/store"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Post("/", ingestHandler(cfg))
	r.Get("/health", healthHandler(cfg))
	r.Get("/records", listRecordsHandler(cfg))
	r.Get("/records/{id}", getRecordHandler(cfg))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:              "ok",
			Version:             config.Version,
			UptimeS:             uptime,
			QueueLength:         cfg.Queue.Length(),
			ProcessedFiles:      cfg.Queue.ProcessedFiles(),
			FailedFiles:         cfg.Queue.FailedFiles(),
			ProcessedMessageIDs: cfg.Queue.SeenDeliveryIDs(),
		})
	}
}

func listRecordsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if l := r.URL.Query().Get("limit"); l != "" {
			parsed, err := strconv.Atoi(l)
			if err != nil || parsed < 1 {
				WriteError(w, http.StatusBadRequest, "invalid limit", "BAD_REQUEST")
				return
			}
			limit = parsed
		}

		records, err := cfg.Records.ListProcessed(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list records", "INTERNAL_ERROR")
			return
		}

		resp := RecordsResponse{Records: make([]RecordResponse, len(records))}
		for i, rec := range records {
			resp.Records[i] = recordToResponse(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getRecordHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "record id required", "BAD_REQUEST")
			return
		}

		record, err := cfg.Records.GetProcessed(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if record == nil {
			WriteError(w, http.StatusNotFound, "record not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, recordToResponse(record))
	}
}

func recordToResponse(rec *store.ProcessedRecord) RecordResponse {
	return RecordResponse{
		ID:          rec.ID,
		FileName:    rec.FileName,
		RawID:       rec.RawID,
		DriveFileID: rec.DriveFileID,
		Payload:     rec.Payload,
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
	}
}
