package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"handbookbot/internal/chat"
)

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)

	bandStyles = map[chat.Band]lipgloss.Style{
		chat.BandHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		chat.BandMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		chat.BandLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}

	unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe    = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func (m Model) renderMessages() string {
	width := max(20, m.viewport.Width-2)
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, msg := range m.state.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		label := botStyle.Render("Handbook Assistant")
		if msg.Role == chat.RoleUser {
			label = userStyle.Render("You")
		}
		b.WriteString(label + " " + dimStyle.Render(msg.Timestamp.Format("15:04:05")) + "\n")
		b.WriteString(wrap.Render(msg.Content) + "\n")

		if msg.Confidence != nil {
			b.WriteString("Confidence: " + percentStyle(*msg.Confidence).Render(fmt.Sprintf("%d%%", *msg.Confidence)) + "\n")
		}
		if msg.HasSources() {
			b.WriteString(m.renderSources(i, msg, wrap))
		}
	}
	if m.state.ShowSamples() {
		b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("Try asking about:") + "\n")
		for i, q := range chat.SampleQuestions {
			b.WriteString(fmt.Sprintf("  %d. %q\n", i+1, q))
		}
		b.WriteString(dimStyle.Render("Type a number and press enter.") + "\n")
	}
	return b.String()
}

func (m Model) renderSources(i int, msg chat.Message, wrap lipgloss.Style) string {
	open := m.expanded[msg.ID]
	marker := "▸"
	if open {
		marker = "▾"
	}
	header := fmt.Sprintf("%s Sources (%d handbook sections found)", marker, len(msg.Sources))
	if i == m.selected {
		header = selectedStyle.Render(header)
	} else {
		header = dimStyle.Render(header)
	}
	if !open {
		return header + "\n"
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	question := m.questions[msg.ID]
	for _, src := range msg.Sources {
		b.WriteString("  " + dimStyle.Render("Handbook Section") + "  " +
			percentStyle(src.Relevance).Render(fmt.Sprintf("%d%% relevant", src.Relevance)) + "\n")
		b.WriteString(wrap.PaddingLeft(2).Render(highlightBestSentence(src.Text, question)) + "\n")
	}
	return b.String()
}

func percentStyle(percent int) lipgloss.Style {
	return bandStyles[chat.BandOf(percent)]
}

// highlightBestSentence emphasises the sentence of text sharing the most
// words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return text
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return text
	}
	bestIdx := 0
	bestScore := 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestScore == 0 {
		return text
	}
	best := strings.TrimSpace(sentences[bestIdx])
	return strings.Replace(text, best, highlightStyle.Render(best), 1)
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
