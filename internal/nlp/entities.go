// internal/nlp/entities.go
package nlp

import (
	"strconv"
	"strings"
	"time"
)

// ExtractedEntity is a typed span of the normalized query text. Normalized
// holds a float64 for numbers, a time.Time for dates and the canonical
// metric key for metric mentions.
type ExtractedEntity struct {
	Type       EntityType  `json:"type"`
	Value      string      `json:"value"`
	Normalized interface{} `json:"normalized"`
	Position   [2]int      `json:"position"`
	Confidence float64     `json:"confidence"`
}

// ExtractEntities scans normalized text for numbers, dates and metric
// mentions. Emission order is numbers, then dates, then metrics; entities
// are not deduplicated, so a text with two numbers yields two entities.
func ExtractEntities(text string) []ExtractedEntity {
	var entities []ExtractedEntity

	for _, m := range numberPattern.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[2]:m[3]]
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		entities = append(entities, ExtractedEntity{
			Type:       EntityNumber,
			Value:      raw,
			Normalized: value,
			Position:   [2]int{m[2], m[3]},
			Confidence: 0.9,
		})
	}

	for _, m := range datePattern.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[2]:m[3]]
		parsed, ok := parseBrazilianDate(raw)
		if !ok {
			continue
		}
		entities = append(entities, ExtractedEntity{
			Type:       EntityDate,
			Value:      raw,
			Normalized: parsed,
			Position:   [2]int{m[2], m[3]},
			Confidence: 0.95,
		})
	}

	// First occurrence per canonical metric key only.
	for _, mp := range metricPatterns {
		loc := mp.Pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		entities = append(entities, ExtractedEntity{
			Type:       EntityMetric,
			Value:      text[loc[0]:loc[1]],
			Normalized: mp.Key,
			Position:   [2]int{loc[0], loc[1]},
			Confidence: 0.8,
		})
	}

	return entities
}

// parseBrazilianDate converts DD/MM/YYYY by reordering to ISO before
// constructing the date.
func parseBrazilianDate(raw string) (time.Time, bool) {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// ExtractMetricKeys returns the canonical keys of every metric mentioned in
// the text as a flat list, in pattern declaration order.
func ExtractMetricKeys(text string) []string {
	var keys []string
	for _, mp := range metricPatterns {
		if mp.Pattern.MatchString(text) {
			keys = append(keys, mp.Key)
		}
	}
	return keys
}
