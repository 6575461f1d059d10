package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barquery/internal/nlp"
)

func TestDefaultBusinessContext(t *testing.T) {
	bc := DefaultBusinessContext()
	assert.Equal(t, "bar_restaurant", bc.BusinessType)
	assert.Equal(t, "America/Sao_Paulo", bc.Timezone)
	assert.Equal(t, "BRL", bc.Currency)
	assert.Contains(t, bc.Metrics, "faturamento")
}

func TestEncodeContextDeterministic(t *testing.T) {
	analysis := &nlp.QueryAnalysis{
		Intent:  nlp.QueryIntent{Type: nlp.IntentAnalysis, Category: nlp.CategorySales, Action: "analise", Confidence: 0.8},
		Metrics: []string{"revenue"},
	}
	data := map[string]interface{}{
		"zeta":  1,
		"alpha": "x",
		"beta":  []string{"a", "b"},
	}

	first, err := encodeContext(data, analysis)
	require.NoError(t, err)
	second, err := encodeContext(data, analysis)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEncodeContextShape(t *testing.T) {
	analysis := &nlp.QueryAnalysis{
		Intent: nlp.QueryIntent{Type: nlp.IntentQuestion, Category: nlp.CategoryGeneral},
	}

	encoded, err := encodeContext(map[string]interface{}{"faturamento": 1500}, analysis)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(encoded), &decoded))

	assert.Contains(t, decoded, "data")
	assert.Contains(t, decoded, "queryAnalysis")
	assert.Contains(t, decoded, "availableMetrics")
	assert.Contains(t, decoded, "businessContext")
}

func TestEncodeContextOmitsEmptyData(t *testing.T) {
	analysis := &nlp.QueryAnalysis{
		Intent: nlp.QueryIntent{Type: nlp.IntentQuestion, Category: nlp.CategoryGeneral},
	}

	encoded, err := encodeContext(nil, analysis)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(encoded), &decoded))
	assert.NotContains(t, decoded, "data")
}
