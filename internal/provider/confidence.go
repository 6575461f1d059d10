// internal/provider/confidence.go
package provider

import (
	"regexp"
	"strings"
)

var numericToken = regexp.MustCompile(`\d+(\.\d+)?`)

// hedgingWords lower the score of answers that avoid committing to numbers.
var hedgingWords = []string{"talvez", "possivelmente", "pode ser", "aproximadamente"}

// scoreGeneration estimates how trustworthy the generated text is from the
// text alone: base 0.5, up to +0.3 for length (saturating near 1000 chars),
// +0.2 when more than 3 numeric tokens are present, +0.1 for list or
// section structure, -0.05 per hedging word. Clamped to [0.1, 1.0].
func scoreGeneration(content string) float64 {
	confidence := 0.5

	lengthBonus := float64(len(content)) / 1000
	if lengthBonus > 0.3 {
		lengthBonus = 0.3
	}
	confidence += lengthBonus

	if len(numericToken.FindAllString(content, -1)) > 3 {
		confidence += 0.2
	}

	if strings.Contains(content, "•") || strings.Contains(content, "-") || strings.Contains(content, "1.") {
		confidence += 0.1
	}

	lower := strings.ToLower(content)
	for _, word := range hedgingWords {
		confidence -= 0.05 * float64(strings.Count(lower, word))
	}

	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
