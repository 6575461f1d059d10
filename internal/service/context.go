// internal/service/context.go
package service

import (
	"encoding/json"

	"barquery/internal/nlp"
)

// BusinessContext is the static business descriptor attached to every
// provider call so the model answers in the right frame of reference.
type BusinessContext struct {
	BusinessType string   `json:"businessType"`
	Industry     string   `json:"industry"`
	Metrics      []string `json:"metrics"`
	Timezone     string   `json:"timezone"`
	Currency     string   `json:"currency"`
}

func DefaultBusinessContext() BusinessContext {
	return BusinessContext{
		BusinessType: "bar_restaurant",
		Industry:     "food_beverage",
		Metrics:      nlp.AvailableMetrics(),
		Timezone:     "America/Sao_Paulo",
		Currency:     "BRL",
	}
}

// enhancedContext is the full payload serialized into the provider request:
// caller-supplied data plus the query analysis and business descriptor.
type enhancedContext struct {
	Data             map[string]interface{} `json:"data,omitempty"`
	QueryAnalysis    *nlp.QueryAnalysis     `json:"queryAnalysis"`
	AvailableMetrics []string               `json:"availableMetrics"`
	BusinessContext  BusinessContext        `json:"businessContext"`
}

// encodeContext serializes the enhanced context. encoding/json sorts map
// keys, so equal inputs always produce equal bytes.
func encodeContext(data map[string]interface{}, analysis *nlp.QueryAnalysis) (string, error) {
	payload := enhancedContext{
		Data:             data,
		QueryAnalysis:    analysis,
		AvailableMetrics: nlp.AvailableMetrics(),
		BusinessContext:  DefaultBusinessContext(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
