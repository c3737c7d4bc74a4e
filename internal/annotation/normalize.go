package annotation

import (
	"errors"
	"strings"
)

// ErrNoTranscription is returned when the provider response carries no
// speech transcription section at all. An empty-but-present section is a
// valid empty transcript, not an error.
var ErrNoTranscription = errors.New("no transcription available")

// NormalizeTranscript flattens the provider's speech transcriptions into one
// detection per segment, using the highest-ranked alternative. It also
// returns the full transcript, segments joined with a single space.
func NormalizeTranscript(result *AnnotationResult) (string, []Detection, error) {
	if result == nil || result.SpeechTranscriptions == nil {
		return "", nil, ErrNoTranscription
	}

	var detections []Detection
	var parts []string
	for _, st := range result.SpeechTranscriptions {
		if len(st.Alternatives) == 0 {
			continue
		}
		best := st.Alternatives[0]
		if best.Transcript == "" {
			continue
		}

		ts := 0.0
		if len(best.Words) > 0 {
			ts = parseOffset(best.Words[0].StartTime)
		}

		detections = append(detections, Detection{
			Description: best.Transcript,
			Confidence:  best.Confidence,
			Timestamp:   ts,
		})
		parts = append(parts, strings.TrimSpace(best.Transcript))
	}

	return strings.Join(parts, " "), detections, nil
}

// NormalizeLabels converts segment label annotations into detections, one per
// frame when frames are present, otherwise one per segment. Missing optional
// fields default to zero values.
func NormalizeLabels(result *AnnotationResult) []Detection {
	if result == nil {
		return nil
	}

	var detections []Detection
	for _, label := range result.SegmentLabelAnnotations {
		if len(label.Frames) > 0 {
			for _, frame := range label.Frames {
				detections = append(detections, Detection{
					Description: label.Entity.Description,
					Confidence:  frame.Confidence,
					Timestamp:   parseOffset(frame.TimeOffset),
				})
			}
			continue
		}
		for _, seg := range label.Segments {
			detections = append(detections, Detection{
				Description: label.Entity.Description,
				Confidence:  seg.Confidence,
				Timestamp:   parseOffset(seg.Segment.StartTimeOffset),
			})
		}
	}
	return detections
}

// NormalizeObjects converts object track annotations into detections, one per
// tracked frame. The track-level confidence applies to every frame.
func NormalizeObjects(result *AnnotationResult) []Detection {
	if result == nil {
		return nil
	}

	var detections []Detection
	for _, obj := range result.ObjectAnnotations {
		if len(obj.Frames) == 0 {
			detections = append(detections, Detection{
				Description: obj.Entity.Description,
				Confidence:  obj.Confidence,
			})
			continue
		}
		for _, frame := range obj.Frames {
			detections = append(detections, Detection{
				Description: obj.Entity.Description,
				Confidence:  obj.Confidence,
				Timestamp:   parseOffset(frame.TimeOffset),
			})
		}
	}
	return detections
}

// NormalizeText converts on-screen text annotations into detections, one per
// detected segment.
func NormalizeText(result *AnnotationResult) []Detection {
	if result == nil {
		return nil
	}

	var detections []Detection
	for _, txt := range result.TextAnnotations {
		if len(txt.Segments) == 0 {
			detections = append(detections, Detection{Description: txt.Text})
			continue
		}
		for _, seg := range txt.Segments {
			detections = append(detections, Detection{
				Description: txt.Text,
				Confidence:  seg.Confidence,
				Timestamp:   parseOffset(seg.Segment.StartTimeOffset),
			})
		}
	}
	return detections
}
