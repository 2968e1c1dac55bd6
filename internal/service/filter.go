package service

import "handbookbot/internal/domain"

// relevantTexts keeps the text of matches scoring strictly above minScore.
// Matches without text, or with empty text, are dropped.
func relevantTexts(matches []domain.Match, minScore float64) []string {
	var out []string
	for _, m := range matches {
		if m.Score <= minScore {
			continue
		}
		text, _ := m.Text()
		if text == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}
