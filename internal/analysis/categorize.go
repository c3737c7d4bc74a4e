package analysis

import (
	"sort"
	"strings"
	"unicode"
)

// LabelBuckets is the fixed bucket set for scene label entities, in priority
// order.
var LabelBuckets = []string{BucketRooms, BucketStyles, BucketMaterials, BucketFeatures, BucketOther}

// ObjectBuckets is the fixed bucket set for tracked object entities, in
// priority order.
var ObjectBuckets = []string{BucketFurniture, BucketAppliances, BucketFixtures, BucketOther}

// TextBuckets is the fixed bucket set for on-screen text spans.
var TextBuckets = []string{BucketPrice, BucketPropertyDetail, BucketOther}

// CategorizeLabels partitions label entities into rooms, styles, materials,
// features and other. The first matching keyword list wins; an entity never
// appears in two buckets. Bucket contents are ordered by description.
func CategorizeLabels(entities map[string]*Entity, tax Taxonomy) map[string][]*Entity {
	buckets := emptyBuckets(LabelBuckets)
	for _, key := range sortedKeys(entities) {
		e := entities[key]
		bucket := labelBucket(e.Description, tax)
		buckets[bucket] = append(buckets[bucket], e)
	}
	return buckets
}

func labelBucket(description string, tax Taxonomy) string {
	desc := strings.ToLower(description)
	switch {
	case matchesAny(desc, tax.Rooms):
		return BucketRooms
	case matchesAny(desc, tax.Styles):
		return BucketStyles
	case matchesAny(desc, tax.Materials):
		return BucketMaterials
	case strings.Contains(desc, "feature") || strings.Contains(desc, "design"):
		return BucketFeatures
	default:
		return BucketOther
	}
}

// CategorizeObjects partitions object entities into furniture, appliances,
// fixtures and other under the same first-match-wins rule.
func CategorizeObjects(entities map[string]*Entity, tax Taxonomy) map[string][]*Entity {
	buckets := emptyBuckets(ObjectBuckets)
	for _, key := range sortedKeys(entities) {
		e := entities[key]
		bucket := objectBucket(e.Description, tax)
		buckets[bucket] = append(buckets[bucket], e)
	}
	return buckets
}

func objectBucket(description string, tax Taxonomy) string {
	desc := strings.ToLower(description)
	switch {
	case matchesAny(desc, tax.Furniture):
		return BucketFurniture
	case matchesAny(desc, tax.Appliances):
		return BucketAppliances
	case matchesAny(desc, tax.Fixtures):
		return BucketFixtures
	default:
		return BucketOther
	}
}

// CategorizeText sorts merged text spans into price, propertyDetail and
// other. The price check runs before the property-detail check: any span
// carrying a currency symbol or a digit is a price.
func CategorizeText(spans []TextSpan, tax Taxonomy) map[string][]TextSpan {
	buckets := make(map[string][]TextSpan, len(TextBuckets))
	for _, name := range TextBuckets {
		buckets[name] = nil
	}
	for _, span := range spans {
		bucket := textBucket(span.Text, tax)
		buckets[bucket] = append(buckets[bucket], span)
	}
	return buckets
}

func textBucket(text string, tax Taxonomy) string {
	if looksLikePrice(text) {
		return BucketPrice
	}
	lower := strings.ToLower(text)
	if matchesAny(lower, tax.PropertyDetail) {
		return BucketPropertyDetail
	}
	return BucketOther
}

func looksLikePrice(text string) bool {
	for _, r := range text {
		if r == '$' || r == '€' || r == '£' || r == '¥' || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// matchesAny reports whether any keyword is contained in desc. desc must
// already be lowercased.
func matchesAny(desc string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

func emptyBuckets(names []string) map[string][]*Entity {
	buckets := make(map[string][]*Entity, len(names))
	for _, name := range names {
		buckets[name] = nil
	}
	return buckets
}

func sortedKeys(entities map[string]*Entity) []string {
	keys := make([]string, 0, len(entities))
	for k := range entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
