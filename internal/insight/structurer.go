// internal/insight/structurer.go
package insight

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	stderrors "barquery/internal/common/errors"
	"barquery/internal/nlp"
	"barquery/internal/provider"
)

// ChartSuggestion is advisory only; the dashboard decides whether to render.
type ChartSuggestion struct {
	Type   string    `json:"type"`
	Data   []float64 `json:"data"`
	Labels []string  `json:"labels"`
}

// AnalysisResult is the final artifact returned to the caller.
type AnalysisResult struct {
	Summary         string             `json:"summary"`
	Insights        []string           `json:"insights"`
	Recommendations []string           `json:"recommendations"`
	Metrics         map[string]float64 `json:"metrics"`
	Confidence      float64            `json:"confidence"`
	Sources         []string           `json:"sources"`
	Charts          []ChartSuggestion  `json:"charts,omitempty"`
}

var (
	bulletLine   = regexp.MustCompile(`^[-•*]\s`)
	numberedLine = regexp.MustCompile(`^\d+\.\s`)

	insightKeywords        = []string{"insight", "observação", "destaque"}
	recommendationKeywords = []string{"recomend", "sugest", "deve", "implement"}

	// Number-plus-description patterns mined from generated text.
	textMetricPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`),
		regexp.MustCompile(`R\$\s*(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(clientes?|pessoas?|visitantes?)`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(vendas?|eventos?|dias?)`),
	}
)

// Structure reshapes raw generated text into an AnalysisResult using the
// originating analysis for confidence blending and chart suggestions. It
// fails with AnalysisError only when the content is empty.
func Structure(gen *provider.GenerationResult, analysis *nlp.QueryAnalysis) (*AnalysisResult, error) {
	content := strings.TrimSpace(gen.Content)
	if content == "" {
		return nil, stderrors.NewAnalysisError("empty generation content")
	}

	summary := extractSummary(content)
	insights := extractBulletPoints(content, insightKeywords)
	if len(insights) == 0 {
		insights = []string{summary}
	}
	recommendations := extractBulletPoints(content, recommendationKeywords)
	textMetrics := extractMetricsFromText(content)

	return &AnalysisResult{
		Summary:         summary,
		Insights:        insights,
		Recommendations: recommendations,
		Metrics:         textMetrics,
		Confidence:      (gen.Confidence + analysis.Confidence) / 2,
		Sources:         []string{"barquery_database", "ai_analysis"},
		Charts:          suggestCharts(analysis, textMetrics),
	}, nil
}

// extractSummary takes the first paragraph, or the first 200 characters if
// there is no paragraph break.
func extractSummary(content string) string {
	paragraphs := strings.SplitN(content, "\n\n", 2)
	if paragraphs[0] != "" {
		return paragraphs[0]
	}
	if len(content) > 200 {
		return content[:200]
	}
	return content
}

// extractBulletPoints collects list items and keyword-bearing lines.
func extractBulletPoints(content string, keywords []string) []string {
	var points []string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case bulletLine.MatchString(trimmed):
			// Strip via the regexp: markers like • are multi-byte runes.
			points = append(points, strings.TrimSpace(bulletLine.ReplaceAllString(trimmed, "")))
		case numberedLine.MatchString(trimmed):
			points = append(points, strings.TrimSpace(numberedLine.ReplaceAllString(trimmed, "")))
		default:
			lower := strings.ToLower(trimmed)
			for _, keyword := range keywords {
				if strings.Contains(lower, keyword) {
					points = append(points, trimmed)
					break
				}
			}
		}
	}

	return points
}

// extractMetricsFromText scans for number/description pairs. The last match
// for a description key wins; bare percentages and currency amounts share
// the "valor" key.
func extractMetricsFromText(content string) map[string]float64 {
	metricsOut := make(map[string]float64)

	for _, pattern := range textMetricPatterns {
		for _, m := range pattern.FindAllStringSubmatch(content, -1) {
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			description := "valor"
			if len(m) > 2 && m[2] != "" {
				description = strings.ToLower(m[2])
			}
			metricsOut[description] = value
		}
	}

	return metricsOut
}

// suggestCharts fires at most three advisory rules; nil when none apply.
func suggestCharts(analysis *nlp.QueryAnalysis, textMetrics map[string]float64) []ChartSuggestion {
	var charts []ChartSuggestion

	if analysis.Intent.Type == nlp.IntentTrend && analysis.TimeRange != nil {
		charts = append(charts, ChartSuggestion{
			Type:   "line",
			Data:   []float64{},
			Labels: []string{"Tendência temporal"},
		})
	}

	if analysis.Intent.Type == nlp.IntentComparison {
		charts = append(charts, ChartSuggestion{
			Type:   "bar",
			Data:   []float64{},
			Labels: []string{"Comparação"},
		})
	}

	if len(textMetrics) > 3 {
		keys := make([]string, 0, len(textMetrics))
		for k := range textMetrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([]float64, len(keys))
		for i, k := range keys {
			values[i] = textMetrics[k]
		}
		charts = append(charts, ChartSuggestion{Type: "pie", Data: values, Labels: keys})
	}

	return charts
}
