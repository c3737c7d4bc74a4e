// Package annotation defines the video-intelligence provider contract and
// converts raw provider responses into uniform timestamped detections.
package annotation

import (
	"strconv"
	"strings"
)

// Feature identifies one annotation kind the provider can produce.
type Feature string

const (
	FeatureSpeechTranscription Feature = "SPEECH_TRANSCRIPTION"
	FeatureObjectTracking      Feature = "OBJECT_TRACKING"
	FeatureLabelDetection      Feature = "LABEL_DETECTION"
	FeatureTextDetection       Feature = "TEXT_DETECTION"
)

// Detection is one timestamped, confidence-scored observation extracted from
// a provider response. Timestamp is in seconds from the start of the video.
type Detection struct {
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Timestamp   float64 `json:"timestamp"`
}

// AnnotateRequest describes one annotation submission.
type AnnotateRequest struct {
	InputURI string    `json:"inputUri"`
	Features []Feature `json:"features"`
}

// AnnotationResult is the provider's result for a single video. Absent
// sections are nil; an empty-but-present section decodes as an empty slice.
type AnnotationResult struct {
	SpeechTranscriptions    []SpeechTranscription `json:"speechTranscriptions"`
	ObjectAnnotations       []ObjectAnnotation    `json:"objectAnnotations"`
	SegmentLabelAnnotations []LabelAnnotation     `json:"segmentLabelAnnotations"`
	TextAnnotations         []TextAnnotation      `json:"textAnnotations"`
}

type SpeechTranscription struct {
	Alternatives []SpeechAlternative `json:"alternatives"`
}

// SpeechAlternative is one candidate transcript for a speech segment,
// ordered by the provider from most to least likely.
type SpeechAlternative struct {
	Transcript string     `json:"transcript"`
	Confidence float64    `json:"confidence"`
	Words      []WordInfo `json:"words"`
}

type WordInfo struct {
	Word      string `json:"word"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type LabelAnnotation struct {
	Entity   Entity         `json:"entity"`
	Segments []LabelSegment `json:"segments"`
	Frames   []LabelFrame   `json:"frames"`
}

type Entity struct {
	Description string `json:"description"`
}

type LabelSegment struct {
	Segment    Segment `json:"segment"`
	Confidence float64 `json:"confidence"`
}

type LabelFrame struct {
	TimeOffset string  `json:"timeOffset"`
	Confidence float64 `json:"confidence"`
}

type Segment struct {
	StartTimeOffset string `json:"startTimeOffset"`
	EndTimeOffset   string `json:"endTimeOffset"`
}

type ObjectAnnotation struct {
	Entity     Entity        `json:"entity"`
	Confidence float64       `json:"confidence"`
	Frames     []ObjectFrame `json:"frames"`
}

type ObjectFrame struct {
	TimeOffset string `json:"timeOffset"`
}

type TextAnnotation struct {
	Text     string        `json:"text"`
	Segments []TextSegment `json:"segments"`
}

type TextSegment struct {
	Segment    Segment `json:"segment"`
	Confidence float64 `json:"confidence"`
}

// parseOffset converts a provider duration string like "12.500s" into
// seconds. Malformed or empty offsets yield zero.
func parseOffset(offset string) float64 {
	s := strings.TrimSuffix(strings.TrimSpace(offset), "s")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
