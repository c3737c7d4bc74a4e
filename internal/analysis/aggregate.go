package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/AuraOfDivinity/gcs-video-analysis/internal/annotation"
)

// Occurrence is one sighting of an entity on the video timeline.
type Occurrence struct {
	Timestamp  float64 `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// Entity summarizes every detection sharing a normalized description.
// Count always equals len(Occurrences).
type Entity struct {
	Description       string       `json:"description"`
	Count             int          `json:"count"`
	TotalConfidence   float64      `json:"-"`
	Occurrences       []Occurrence `json:"occurrences"`
	FirstSeen         float64      `json:"firstSeen"`
	LastSeen          float64      `json:"lastSeen"`
	AverageConfidence float64      `json:"averageConfidence"`
	MaxConfidence     float64      `json:"maxConfidence"`
	MinConfidence     float64      `json:"minConfidence"`
	TimeSpan          float64      `json:"timeSpan"`
	Frequency         float64      `json:"frequency"`
}

// AggregateOptions controls entity aggregation.
type AggregateOptions struct {
	// ConfidenceThreshold drops entities whose mean confidence falls below
	// it after aggregation. Zero keeps everything.
	ConfidenceThreshold float64

	// FrameInterval folds only detections whose timestamp is an exact
	// multiple of the interval. Zero folds every detection.
	FrameInterval float64
}

// AggregateEntities groups detections by lowercased trimmed description and
// computes per-entity statistics. Detections with an empty key are skipped.
// The threshold filters on the aggregate mean, not individual detections, so
// a high-confidence occurrence can only rescue an entity by lifting its mean.
func AggregateEntities(detections []annotation.Detection, opts AggregateOptions) map[string]*Entity {
	entities := make(map[string]*Entity)

	for _, d := range detections {
		key := strings.ToLower(strings.TrimSpace(d.Description))
		if key == "" {
			continue
		}
		if opts.FrameInterval > 0 && math.Mod(d.Timestamp, opts.FrameInterval) != 0 {
			continue
		}

		e, ok := entities[key]
		if !ok {
			e = &Entity{
				Description:   key,
				FirstSeen:     d.Timestamp,
				LastSeen:      d.Timestamp,
				MinConfidence: d.Confidence,
				MaxConfidence: d.Confidence,
			}
			entities[key] = e
		}

		e.Count++
		e.TotalConfidence += d.Confidence
		e.Occurrences = append(e.Occurrences, Occurrence{Timestamp: d.Timestamp, Confidence: d.Confidence})
		if d.Timestamp < e.FirstSeen {
			e.FirstSeen = d.Timestamp
		}
		if d.Timestamp > e.LastSeen {
			e.LastSeen = d.Timestamp
		}
		if d.Confidence < e.MinConfidence {
			e.MinConfidence = d.Confidence
		}
		if d.Confidence > e.MaxConfidence {
			e.MaxConfidence = d.Confidence
		}
	}

	for key, e := range entities {
		e.AverageConfidence = e.TotalConfidence / float64(e.Count)
		e.TimeSpan = e.LastSeen - e.FirstSeen
		e.Frequency = float64(e.Count) / math.Max(e.TimeSpan, 1)

		if opts.ConfidenceThreshold > 0 && e.AverageConfidence < opts.ConfidenceThreshold {
			delete(entities, key)
		}
	}

	return entities
}

// TextSpan is a merged group of on-screen text detections that fell into the
// same fixed-width time window.
type TextSpan struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Timestamp  float64 `json:"timestamp"`
	Duration   float64 `json:"duration"`
	Frequency  int     `json:"frequency"`
}

// AggregateText groups text detections into non-overlapping windows of
// windowSeconds and merges each window: text space-joined in arrival order,
// confidence is the max of members, timestamp the min, duration max-min.
// Spans are returned in window order.
func AggregateText(detections []annotation.Detection, windowSeconds float64) []TextSpan {
	if windowSeconds <= 0 {
		windowSeconds = 1
	}

	type window struct {
		parts []string
		maxC  float64
		minTS float64
		maxTS float64
		count int
	}

	windows := make(map[int]*window)
	for _, d := range detections {
		if strings.TrimSpace(d.Description) == "" {
			continue
		}
		idx := int(math.Floor(d.Timestamp / windowSeconds))
		w, ok := windows[idx]
		if !ok {
			w = &window{minTS: d.Timestamp, maxTS: d.Timestamp}
			windows[idx] = w
		}
		w.parts = append(w.parts, d.Description)
		w.count++
		if d.Confidence > w.maxC {
			w.maxC = d.Confidence
		}
		if d.Timestamp < w.minTS {
			w.minTS = d.Timestamp
		}
		if d.Timestamp > w.maxTS {
			w.maxTS = d.Timestamp
		}
	}

	indexes := make([]int, 0, len(windows))
	for idx := range windows {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	spans := make([]TextSpan, 0, len(indexes))
	for _, idx := range indexes {
		w := windows[idx]
		spans = append(spans, TextSpan{
			Text:       strings.Join(w.parts, " "),
			Confidence: w.maxC,
			Timestamp:  w.minTS,
			Duration:   w.maxTS - w.minTS,
			Frequency:  w.count,
		})
	}
	return spans
}
