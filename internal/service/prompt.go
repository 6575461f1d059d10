// internal/service/prompt.go
package service

import (
	"fmt"
	"strings"

	"barquery/internal/nlp"
)

// BuildSystemPrompt assembles the system instruction from the analysis. The
// sentences are fixed Portuguese strings so prompt output is reproducible
// for a given analysis.
func BuildSystemPrompt(analysis *nlp.QueryAnalysis) string {
	prompts := []string{
		"Você é o BarQuery AI Assistant, especialista em análise de dados para gestão de bares e casas noturnas.",
	}

	if analysis.Intent.Category != nlp.CategoryGeneral {
		prompts = append(prompts, fmt.Sprintf("Esta consulta é sobre %s. Foque neste domínio.", analysis.Intent.Category))
	}

	switch analysis.Intent.Type {
	case nlp.IntentAnalysis:
		prompts = append(prompts, "Forneça uma análise detalhada com insights, números e recomendações práticas.")
	case nlp.IntentComparison:
		prompts = append(prompts, "Compare os dados de forma clara, destacando diferenças e padrões significativos.")
	case nlp.IntentTrend:
		prompts = append(prompts, "Identifique tendências, padrões temporais e projeções baseadas nos dados históricos.")
	case nlp.IntentForecast:
		prompts = append(prompts, "Faça previsões baseadas em dados históricos e tendências identificadas.")
	case nlp.IntentRecommendation:
		prompts = append(prompts, "Forneça recomendações específicas e acionáveis para melhorar o negócio.")
	}

	prompts = append(prompts,
		"Sempre inclua números específicos quando disponíveis.",
		"Estruture a resposta de forma clara com insights, métricas e recomendações.",
		"Use linguagem direta e profissional, focada em resultados de negócio.",
	)

	return strings.Join(prompts, " ")
}

// BuildOptimizedQuery augments the raw question with qualifiers the analysis
// found missing: a default window when no time range resolved, and a metrics
// hint when the query needs data but named none.
func BuildOptimizedQuery(query string, analysis *nlp.QueryAnalysis) string {
	optimized := query

	if analysis.TimeRange == nil {
		optimized += " (considerando os últimos 30 dias)"
	}

	if len(analysis.Metrics) == 0 && analysis.RequiresData {
		optimized += " incluindo métricas de vendas, clientes e performance"
	}

	return optimized
}
