package service

import (
	"math"

	"handbookbot/internal/domain"
)

// FallbackAnswer is returned when no passage clears the relevance threshold.
const FallbackAnswer = "I couldn't find relevant information about that topic in the employee handbook. Please try rephrasing your question or ask about policies, benefits, or procedures."

const noText = "No text available"

func fallback() *domain.Answer {
	return &domain.Answer{Answer: FallbackAnswer, Sources: []domain.Source{}, Confidence: 0}
}

// formatSources converts every returned match, in rank order, to a citation.
func formatSources(matches []domain.Match, snippetChars int) []domain.Source {
	sources := make([]domain.Source, 0, len(matches))
	for i, m := range matches {
		text, ok := m.Text()
		if ok {
			text = truncate(text, snippetChars)
		} else {
			text = noText
		}
		sources = append(sources, domain.Source{
			ID:        i,
			Score:     m.Score,
			Text:      text,
			Relevance: percent(m.Score),
		})
	}
	return sources
}

// confidence averages the scores of all returned matches, including those
// that did not make it into the prompt context.
func confidence(matches []domain.Match) int {
	if len(matches) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range matches {
		sum += m.Score
	}
	return percent(sum / float64(len(matches)))
}

// percent maps a similarity score in [0,1] to a rounded integer percentage.
func percent(score float64) int {
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return int(math.Round(score * 100))
}

// truncate cuts text to n runes and appends an ellipsis when it was longer.
func truncate(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
