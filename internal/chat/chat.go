// Package chat holds the conversation state of the chat UI and the pure
// reducer that advances it.
package chat

import (
	"fmt"
	"strings"
	"time"

	"handbookbot/internal/domain"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation. Messages are never edited once
// appended.
type Message struct {
	ID         string
	Role       Role
	Content    string
	Timestamp  time.Time
	Sources    []domain.Source
	Confidence *int
}

// HasSources reports whether the message carries citations to show.
func (m Message) HasSources() bool { return len(m.Sources) > 0 }

// State is the whole conversation. Treat it as immutable: Reduce returns a
// new State and never touches the slice of the one it was given.
type State struct {
	Messages []Message
	Typing   bool
}

const Greeting = "👋 Hello! I'm your Employee Handbook Assistant. I can help you find information about company policies, benefits, procedures, and more. What would you like to know?"

// SampleQuestions are offered while the conversation holds only the greeting.
var SampleQuestions = []string{
	"What is the vacation policy?",
	"What are the working hours?",
	"What is the dress code?",
	"What is the sick leave policy?",
	"What benefits do employees get?",
	"What is the remote work policy?",
}

const networkFailure = "❌ Sorry, I'm having trouble connecting to the handbook database. Please try again in a moment."

// ErrorMessage is the assistant reply shown when the API rejects a question.
func ErrorMessage(reason string) string {
	return fmt.Sprintf("❌ Sorry, I encountered an error: %s. Please try rephrasing your question.", reason)
}

// Initial returns the state shown when the chat opens.
func Initial(at time.Time) State {
	return State{Messages: []Message{{
		ID:        "1",
		Role:      RoleAssistant,
		Content:   Greeting,
		Timestamp: at,
	}}}
}

// ShowSamples reports whether the sample questions should be offered.
func (s State) ShowSamples() bool { return len(s.Messages) == 1 }

// Event is an input to Reduce.
type Event interface{ event() }

// UserSent is a question typed or picked by the user.
type UserSent struct {
	ID      string
	At      time.Time
	Content string
}

// AnswerReceived is a successful reply from the API.
type AnswerReceived struct {
	ID     string
	At     time.Time
	Answer domain.Answer
}

// ErrorResponse is a non-OK reply from the API carrying an error text.
type ErrorResponse struct {
	ID    string
	At    time.Time
	Error string
}

// NetworkFailed means the API could not be reached or its reply not read.
type NetworkFailed struct {
	ID string
	At time.Time
}

func (UserSent) event()       {}
func (AnswerReceived) event() {}
func (ErrorResponse) event()  {}
func (NetworkFailed) event()  {}

// Reduce applies ev to s. Replies are appended in the order they arrive and
// any reply clears Typing, even if other questions are still in flight.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case UserSent:
		if strings.TrimSpace(e.Content) == "" {
			return s
		}
		return State{
			Messages: appendMessage(s.Messages, Message{ID: e.ID, Role: RoleUser, Content: e.Content, Timestamp: e.At}),
			Typing:   true,
		}
	case AnswerReceived:
		confidence := e.Answer.Confidence
		return State{Messages: appendMessage(s.Messages, Message{
			ID:         e.ID,
			Role:       RoleAssistant,
			Content:    e.Answer.Answer,
			Timestamp:  e.At,
			Sources:    e.Answer.Sources,
			Confidence: &confidence,
		})}
	case ErrorResponse:
		return State{Messages: appendMessage(s.Messages, Message{
			ID: e.ID, Role: RoleAssistant, Content: ErrorMessage(e.Error), Timestamp: e.At,
		})}
	case NetworkFailed:
		return State{Messages: appendMessage(s.Messages, Message{
			ID: e.ID, Role: RoleAssistant, Content: networkFailure, Timestamp: e.At,
		})}
	}
	return s
}

func appendMessage(msgs []Message, m Message) []Message {
	out := make([]Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}

// Band classifies a confidence or relevance percentage for display.
type Band int

const (
	BandLow Band = iota
	BandMedium
	BandHigh
)

func BandOf(percent int) Band {
	switch {
	case percent >= 80:
		return BandHigh
	case percent >= 60:
		return BandMedium
	default:
		return BandLow
	}
}
