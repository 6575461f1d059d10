// internal/nlp/analyzer.go
package nlp

import (
	"regexp"
	"strings"
	"time"
)

// Complexity buckets a query by how much work answering it well takes.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// QueryAnalysis aggregates everything derived from the raw query text. It
// carries no external state: two calls with the same text and the same
// wall-clock instant produce identical results.
type QueryAnalysis struct {
	Intent       QueryIntent       `json:"intent"`
	Entities     []ExtractedEntity `json:"entities"`
	TimeRange    *TimeRange        `json:"timeRange,omitempty"`
	Metrics      []string          `json:"metrics"`
	Confidence   float64           `json:"confidence"`
	Complexity   Complexity        `json:"complexity"`
	RequiresData bool              `json:"requiresData"`
}

var (
	punctuation = regexp.MustCompile(`[.,!?;]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Normalize lowercases, trims and collapses punctuation and whitespace.
func Normalize(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = punctuation.ReplaceAllString(q, " ")
	q = whitespace.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}

// Analyzer turns raw query text into a QueryAnalysis. The clock is
// injectable so relative time ranges are deterministic under test.
type Analyzer struct {
	now func() time.Time
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewAnalyzerWithClock is used by tests to pin "now".
func NewAnalyzerWithClock(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

// Analyze classifies the query anchored at the current instant. It is total
// over malformed input: no match is a valid outcome, never an error.
func (a *Analyzer) Analyze(query string) *QueryAnalysis {
	return a.AnalyzeAt(query, a.now())
}

// AnalyzeAt classifies the query anchored at an explicit instant.
func (a *Analyzer) AnalyzeAt(query string, now time.Time) *QueryAnalysis {
	normalized := Normalize(query)

	intent := ClassifyIntent(normalized)
	entities := ExtractEntities(normalized)
	timeRange := ResolveTimeRange(normalized, now)
	metrics := ExtractMetricKeys(normalized)

	return &QueryAnalysis{
		Intent:       intent,
		Entities:     entities,
		TimeRange:    timeRange,
		Metrics:      metrics,
		Confidence:   blendConfidence(intent, entities, timeRange),
		Complexity:   scoreComplexity(intent, entities, timeRange, metrics),
		RequiresData: requiresDataAccess(intent, entities),
	}
}

// scoreComplexity adds up heuristics and thresholds the total: <=1 simple,
// <=3 medium, else complex.
func scoreComplexity(intent QueryIntent, entities []ExtractedEntity, timeRange *TimeRange, metrics []string) Complexity {
	score := 0.0

	switch intent.Type {
	case IntentComparison, IntentTrend, IntentForecast:
		score += 2
	case IntentAnalysis, IntentRecommendation:
		score += 1
	}

	score += float64(len(entities)) * 0.5

	if len(metrics) > 2 {
		score += 1
	}

	if timeRange != nil && !timeRange.Relative {
		score += 1
	}

	if score <= 1 {
		return ComplexitySimple
	}
	if score <= 3 {
		return ComplexityMedium
	}
	return ComplexityComplex
}

// requiresDataAccess reports whether answering needs business data rather
// than general knowledge.
func requiresDataAccess(intent QueryIntent, entities []ExtractedEntity) bool {
	switch intent.Type {
	case IntentAnalysis, IntentComparison, IntentTrend, IntentForecast:
		return true
	}

	for _, e := range entities {
		if e.Type == EntityMetric {
			return true
		}
	}

	switch intent.Category {
	case CategorySales, CategoryCustomers, CategoryEvents, CategoryFinancial:
		return true
	}

	return false
}

// blendConfidence starts from the intent confidence, averages in the mean
// entity confidence when entities were found, adds 0.1 for a resolved time
// range and clamps to [0, 1].
func blendConfidence(intent QueryIntent, entities []ExtractedEntity, timeRange *TimeRange) float64 {
	confidence := intent.Confidence

	if len(entities) > 0 {
		sum := 0.0
		for _, e := range entities {
			sum += e.Confidence
		}
		confidence = (confidence + sum/float64(len(entities))) / 2
	}

	if timeRange != nil {
		confidence += 0.1
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
