// internal/nlp/patterns.go
package nlp

import "regexp"

// IntentType is the high-level operation a query asks for.
type IntentType string

const (
	IntentAnalysis       IntentType = "analysis"
	IntentComparison     IntentType = "comparison"
	IntentTrend          IntentType = "trend"
	IntentForecast       IntentType = "forecast"
	IntentSummary        IntentType = "summary"
	IntentRecommendation IntentType = "recommendation"
	IntentQuestion       IntentType = "question"
)

// Category is the business domain a query pertains to.
type Category string

const (
	CategorySales      Category = "sales"
	CategoryCustomers  Category = "customers"
	CategoryEvents     Category = "events"
	CategoryEmployees  Category = "employees"
	CategoryFinancial  Category = "financial"
	CategoryOperations Category = "operations"
	CategoryGeneral    Category = "general"
)

// Period labels a resolved time range.
type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
	PeriodCustom  Period = "custom"
)

// EntityType classifies an extracted span of text.
type EntityType string

const (
	EntityDate     EntityType = "date"
	EntityMetric   EntityType = "metric"
	EntityLocation EntityType = "location"
	EntityPerson   EntityType = "person"
	EntityProduct  EntityType = "product"
	EntityEvent    EntityType = "event"
	EntityNumber   EntityType = "number"
)

// intentPatternGroup binds an intent type to its ordered pattern list.
// Declaration order of the groups is the classification order: the first
// pattern of the first group that matches wins outright.
type intentPatternGroup struct {
	Type     IntentType
	Patterns []*regexp.Regexp
}

var intentPatternGroups = []intentPatternGroup{
	{IntentAnalysis, []*regexp.Regexp{
		regexp.MustCompile(`(?i)como (está|estão|foi|foram) (o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)qual (é|foi|são|foram) (o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)analise? (.+)`),
		regexp.MustCompile(`(?i)mostre? (.+)`),
		regexp.MustCompile(`(?i)veja? (.+)`),
	}},
	{IntentComparison, []*regexp.Regexp{
		regexp.MustCompile(`(?i)compar(e|a|ar) (.+) com (.+)`),
		regexp.MustCompile(`(?i)diferença entre (.+) e (.+)`),
		regexp.MustCompile(`(?i)(.+) versus (.+)`),
		regexp.MustCompile(`(?i)(.+) vs (.+)`),
		regexp.MustCompile(`(?i)(.+) comparado com (.+)`),
	}},
	{IntentTrend, []*regexp.Regexp{
		regexp.MustCompile(`(?i)tendência d(e|o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)crescimento d(e|o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)evolução d(e|o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)como (.+) evoluiu`),
		regexp.MustCompile(`(?i)(.+) ao longo do? (.+)`),
	}},
	{IntentForecast, []*regexp.Regexp{
		regexp.MustCompile(`(?i)previsão d(e|o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)projeção d(e|o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)estimativa d(e|o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)quanto (.+) vai ser`),
		regexp.MustCompile(`(?i)prever (.+)`),
	}},
	{IntentSummary, []*regexp.Regexp{
		regexp.MustCompile(`(?i)resumo d(e|o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)sumário d(e|o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)visão geral d(e|o|a|os|as) (.+)`),
		regexp.MustCompile(`(?i)panorama d(e|o|a|os|as) (.+)`),
	}},
	{IntentRecommendation, []*regexp.Regexp{
		regexp.MustCompile(`(?i)recomend(e|a|ação|ações) (.+)`),
		regexp.MustCompile(`(?i)sugest(ão|ões) (.+)`),
		regexp.MustCompile(`(?i)o que devo (.+)`),
		regexp.MustCompile(`(?i)como melhorar (.+)`),
		regexp.MustCompile(`(?i)estratégia para (.+)`),
	}},
}

type categoryPatternGroup struct {
	Category Category
	Patterns []*regexp.Regexp
}

var categoryPatternGroups = []categoryPatternGroup{
	{CategorySales, []*regexp.Regexp{
		regexp.MustCompile(`(?i)venda(s)?`),
		regexp.MustCompile(`(?i)faturamento`),
		regexp.MustCompile(`(?i)receita`),
		regexp.MustCompile(`(?i)ticket médio`),
		regexp.MustCompile(`(?i)vendeu`),
		regexp.MustCompile(`(?i)facturamento`),
		regexp.MustCompile(`(?i)arrecadação`),
		regexp.MustCompile(`(?i)lucro`),
		regexp.MustCompile(`(?i)margem`),
	}},
	{CategoryCustomers, []*regexp.Regexp{
		regexp.MustCompile(`(?i)cliente(s)?`),
		regexp.MustCompile(`(?i)consumidor(es)?`),
		regexp.MustCompile(`(?i)público`),
		regexp.MustCompile(`(?i)frequentador(es)?`),
		regexp.MustCompile(`(?i)visitante(s)?`),
		regexp.MustCompile(`(?i)pessoa(s)?`),
		regexp.MustCompile(`(?i)fidelização`),
		regexp.MustCompile(`(?i)retenção`),
	}},
	{CategoryEvents, []*regexp.Regexp{
		regexp.MustCompile(`(?i)evento(s)?`),
		regexp.MustCompile(`(?i)festa(s)?`),
		regexp.MustCompile(`(?i)show(s)?`),
		regexp.MustCompile(`(?i)apresentação`),
		regexp.MustCompile(`(?i)noite(s)?`),
		regexp.MustCompile(`(?i)balada`),
		regexp.MustCompile(`(?i)programação`),
		regexp.MustCompile(`(?i)atração`),
		regexp.MustCompile(`(?i)espetáculo`),
	}},
	{CategoryEmployees, []*regexp.Regexp{
		regexp.MustCompile(`(?i)funcionário(s)?`),
		regexp.MustCompile(`(?i)colaborador(es)?`),
		regexp.MustCompile(`(?i)equipe`),
		regexp.MustCompile(`(?i)staff`),
		regexp.MustCompile(`(?i)pessoal`),
		regexp.MustCompile(`(?i)empregado(s)?`),
		regexp.MustCompile(`(?i)trabalhador(es)?`),
		regexp.MustCompile(`(?i)garçom`),
		regexp.MustCompile(`(?i)bartender`),
	}},
	{CategoryFinancial, []*regexp.Regexp{
		regexp.MustCompile(`(?i)financeiro`),
		regexp.MustCompile(`(?i)custo(s)?`),
		regexp.MustCompile(`(?i)despesa(s)?`),
		regexp.MustCompile(`(?i)gasto(s)?`),
		regexp.MustCompile(`(?i)orçamento`),
		regexp.MustCompile(`(?i)balanço`),
		regexp.MustCompile(`(?i)fluxo de caixa`),
		regexp.MustCompile(`(?i)pagamento(s)?`),
		regexp.MustCompile(`(?i)conta(s)?`),
	}},
	{CategoryOperations, []*regexp.Regexp{
		regexp.MustCompile(`(?i)operação`),
		regexp.MustCompile(`(?i)operacional`),
		regexp.MustCompile(`(?i)processo(s)?`),
		regexp.MustCompile(`(?i)checklist`),
		regexp.MustCompile(`(?i)rotina`),
		regexp.MustCompile(`(?i)procedimento(s)?`),
		regexp.MustCompile(`(?i)tarefa(s)?`),
		regexp.MustCompile(`(?i)atividade(s)?`),
	}},
}

// metricPattern binds a canonical metric key to the expression that detects
// mentions of it. Order matters only for entity emission order.
type metricPattern struct {
	Key     string
	Pattern *regexp.Regexp
}

var metricPatterns = []metricPattern{
	{"revenue", regexp.MustCompile(`(?i)faturamento|receita|arrecadação|vendas?`)},
	{"customers", regexp.MustCompile(`(?i)clientes?|pessoas?|visitantes?`)},
	{"events", regexp.MustCompile(`(?i)eventos?|festas?|shows?`)},
	{"ticket_medio", regexp.MustCompile(`(?i)ticket médio|valor médio|gasto médio`)},
	{"growth", regexp.MustCompile(`(?i)crescimento|aumento|evolução`)},
	{"conversion", regexp.MustCompile(`(?i)conversão|taxa de conversão`)},
	{"retention", regexp.MustCompile(`(?i)retenção|fidelização|retorno`)},
	{"satisfaction", regexp.MustCompile(`(?i)satisfação|avaliação|nota`)},
}

// timePattern binds a temporal expression key to its detector. The resolver
// tests these in declaration order and stops at the first match.
type timePattern struct {
	Key     string
	Pattern *regexp.Regexp
}

var timePatterns = []timePattern{
	{"today", regexp.MustCompile(`(?i)hoje|neste dia`)},
	{"yesterday", regexp.MustCompile(`(?i)ontem|dia anterior`)},
	{"this_week", regexp.MustCompile(`(?i)esta semana|semana atual`)},
	{"last_week", regexp.MustCompile(`(?i)semana passada|última semana`)},
	{"this_month", regexp.MustCompile(`(?i)este mês|mês atual`)},
	{"last_month", regexp.MustCompile(`(?i)mês passado|último mês`)},
	{"this_quarter", regexp.MustCompile(`(?i)este trimestre|trimestre atual`)},
	{"last_quarter", regexp.MustCompile(`(?i)trimestre passado|último trimestre`)},
	{"this_year", regexp.MustCompile(`(?i)este ano|ano atual`)},
	{"last_year", regexp.MustCompile(`(?i)ano passado|último ano`)},
	{"last_7_days", regexp.MustCompile(`(?i)últimos? 7 dias?|última semana`)},
	{"last_30_days", regexp.MustCompile(`(?i)últimos? 30 dias?|último mês`)},
	{"last_90_days", regexp.MustCompile(`(?i)últimos? 90 dias?|último trimestre`)},
	{"date_range", regexp.MustCompile(`(?i)de (.+) até (.+)|entre (.+) e (.+)`)},
	{"specific_date", regexp.MustCompile(`(?i)em (\d{1,2}/\d{1,2}/\d{4})`)},
	{"weekday", regexp.MustCompile(`(?i)(segunda|terça|quarta|quinta|sexta|sábado|domingo)`)},
}

var (
	numberPattern = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\b`)
	datePattern   = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)
	actionVerbs   = regexp.MustCompile(`(?i)\b(analise?|compare?|mostre?|calcule?|veja?|explique?)\b`)
)

// AvailableMetrics lists the canonical metric keys the business data layer
// can answer for, in the order they are advertised to providers.
func AvailableMetrics() []string {
	return []string{
		"faturamento", "vendas", "clientes", "ticket_medio", "eventos",
		"crescimento", "conversao", "retencao", "satisfacao",
	}
}
