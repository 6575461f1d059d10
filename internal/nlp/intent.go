// internal/nlp/intent.go
package nlp

// QueryIntent is the classified operation and business domain of a query.
type QueryIntent struct {
	Type       IntentType `json:"type"`
	Category   Category   `json:"category"`
	Action     string     `json:"action"`
	Confidence float64    `json:"confidence"`
}

// ClassifyIntent determines the query's intent type and business category.
//
// Intent groups are tested in declaration order and the first matching
// pattern within the first matching group wins with a fixed confidence of
// 0.8. There is no specificity ranking: a query matching patterns of two
// intent types is always assigned to the group declared first. When nothing
// matches, the default intent is a generic question with confidence 0.3.
func ClassifyIntent(text string) QueryIntent {
	for _, group := range intentPatternGroups {
		for _, pattern := range group.Patterns {
			if pattern.MatchString(text) {
				return QueryIntent{
					Type:       group.Type,
					Category:   classifyCategory(text),
					Action:     extractAction(text, group.Type),
					Confidence: 0.8,
				}
			}
		}
	}

	return QueryIntent{
		Type:       IntentQuestion,
		Category:   CategoryGeneral,
		Action:     "answer",
		Confidence: 0.3,
	}
}

// classifyCategory applies the same first-match-wins rule over the category
// groups, independently of intent classification.
func classifyCategory(text string) Category {
	for _, group := range categoryPatternGroups {
		for _, pattern := range group.Patterns {
			if pattern.MatchString(text) {
				return group.Category
			}
		}
	}
	return CategoryGeneral
}

// extractAction pulls the main verb out of the query, falling back to the
// intent type name when no known verb is present.
func extractAction(text string, intentType IntentType) string {
	if m := actionVerbs.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return string(intentType)
}
