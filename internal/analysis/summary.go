package analysis

import (
	"fmt"
	"strings"

	"github.com/AuraOfDivinity/gcs-video-analysis/internal/annotation"
)

// SummaryOptions carries the reduction tunables.
type SummaryOptions struct {
	ConfidenceThreshold float64
	FrameInterval       float64
	TextWindowSeconds   float64
	Taxonomy            Taxonomy
}

// PropertySummary is the reduced, categorized view of one video's
// annotations. It is the payload handed to the listing generator.
type PropertySummary struct {
	Transcript string                `json:"transcript"`
	Labels     map[string][]*Entity  `json:"labels"`
	Objects    map[string][]*Entity  `json:"objects"`
	Text       map[string][]TextSpan `json:"text"`
}

// BuildSummary runs the full reduction over one provider result: normalize,
// aggregate, filter, categorize. A missing transcript section fails the
// whole build; the other annotation kinds tolerate absence.
func BuildSummary(result *annotation.AnnotationResult, opts SummaryOptions) (*PropertySummary, error) {
	transcript, _, err := annotation.NormalizeTranscript(result)
	if err != nil {
		return nil, err
	}

	aggOpts := AggregateOptions{
		ConfidenceThreshold: opts.ConfidenceThreshold,
		FrameInterval:       opts.FrameInterval,
	}

	labels := AggregateEntities(annotation.NormalizeLabels(result), aggOpts)
	objects := AggregateEntities(annotation.NormalizeObjects(result), aggOpts)
	textSpans := AggregateText(annotation.NormalizeText(result), opts.TextWindowSeconds)

	return &PropertySummary{
		Transcript: transcript,
		Labels:     CategorizeLabels(labels, opts.Taxonomy),
		Objects:    CategorizeObjects(objects, opts.Taxonomy),
		Text:       CategorizeText(textSpans, opts.Taxonomy),
	}, nil
}

// PromptText renders the summary into the structured prompt consumed by the
// generative-text call.
func (s *PropertySummary) PromptText() string {
	var b strings.Builder

	b.WriteString("Video walkthrough analysis:\n\n")
	b.WriteString("Transcript:\n")
	if s.Transcript != "" {
		b.WriteString(s.Transcript)
	} else {
		b.WriteString("(no speech detected)")
	}
	b.WriteString("\n")

	writeEntityBuckets(&b, "Detected scenes", LabelBuckets, s.Labels)
	writeEntityBuckets(&b, "Detected objects", ObjectBuckets, s.Objects)

	b.WriteString("\nOn-screen text:\n")
	for _, name := range TextBuckets {
		spans := s.Text[name]
		if len(spans) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s:", name)
		for _, span := range spans {
			fmt.Fprintf(&b, " %q (%.0fs)", span.Text, span.Timestamp)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeEntityBuckets(b *strings.Builder, heading string, order []string, buckets map[string][]*Entity) {
	fmt.Fprintf(b, "\n%s:\n", heading)
	for _, name := range order {
		entities := buckets[name]
		if len(entities) == 0 {
			continue
		}
		fmt.Fprintf(b, "- %s:", name)
		for _, e := range entities {
			fmt.Fprintf(b, " %s (confidence %.2f, seen %dx from %.1fs to %.1fs)",
				e.Description, e.AverageConfidence, e.Count, e.FirstSeen, e.LastSeen)
		}
		b.WriteString("\n")
	}
}
