package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handbookbot/internal/domain"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestInitial(t *testing.T) {
	s := Initial(t0)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, RoleAssistant, s.Messages[0].Role)
	assert.Equal(t, Greeting, s.Messages[0].Content)
	assert.False(t, s.Typing)
	assert.True(t, s.ShowSamples())
	assert.Len(t, SampleQuestions, 6)
}

func TestReduce_SuccessfulExchange(t *testing.T) {
	s0 := Initial(t0)
	s1 := Reduce(s0, UserSent{ID: "u1", At: t0.Add(time.Second), Content: "What is the dress code?"})

	require.Len(t, s1.Messages, 2)
	assert.True(t, s1.Typing)
	assert.Equal(t, RoleUser, s1.Messages[1].Role)
	assert.False(t, s1.ShowSamples())

	ans := domain.Answer{
		Answer:     "Business casual.",
		Sources:    []domain.Source{{ID: 0, Score: 0.85, Text: "Dress code", Relevance: 85}},
		Confidence: 85,
	}
	s2 := Reduce(s1, AnswerReceived{ID: "a1", At: t0.Add(2 * time.Second), Answer: ans})

	require.Len(t, s2.Messages, 3)
	assert.False(t, s2.Typing)
	last := s2.Messages[2]
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Equal(t, "Business casual.", last.Content)
	require.NotNil(t, last.Confidence)
	assert.Equal(t, 85, *last.Confidence)
	assert.True(t, last.HasSources())
}

func TestReduce_FallbackAnswerHasNoSources(t *testing.T) {
	s := Reduce(Initial(t0), UserSent{ID: "u1", Content: "pets?"})
	s = Reduce(s, AnswerReceived{ID: "a1", Answer: domain.Answer{Answer: "nothing found", Sources: []domain.Source{}}})

	last := s.Messages[len(s.Messages)-1]
	assert.False(t, last.HasSources())
	require.NotNil(t, last.Confidence)
	assert.Equal(t, 0, *last.Confidence)
}

func TestReduce_ErrorResponse(t *testing.T) {
	s := Reduce(Initial(t0), UserSent{ID: "u1", Content: "q"})
	s = Reduce(s, ErrorResponse{ID: "e1", Error: "Question is required"})

	assert.False(t, s.Typing)
	last := s.Messages[len(s.Messages)-1]
	assert.Equal(t, "❌ Sorry, I encountered an error: Question is required. Please try rephrasing your question.", last.Content)
	assert.Nil(t, last.Confidence)
	assert.Nil(t, last.Sources)
}

func TestReduce_NetworkFailed(t *testing.T) {
	s := Reduce(Initial(t0), UserSent{ID: "u1", Content: "q"})
	s = Reduce(s, NetworkFailed{ID: "n1"})

	assert.False(t, s.Typing)
	assert.Equal(t,
		"❌ Sorry, I'm having trouble connecting to the handbook database. Please try again in a moment.",
		s.Messages[len(s.Messages)-1].Content)
}

func TestReduce_BlankInputIgnored(t *testing.T) {
	s0 := Initial(t0)
	for _, c := range []string{"", "   ", "\n"} {
		s1 := Reduce(s0, UserSent{ID: "u", Content: c})
		assert.Equal(t, s0, s1)
	}
}

func TestReduce_DoesNotMutatePriorState(t *testing.T) {
	s0 := Initial(t0)
	s1 := Reduce(s0, UserSent{ID: "u1", Content: "first"})
	s2a := Reduce(s1, NetworkFailed{ID: "n1"})
	s2b := Reduce(s1, ErrorResponse{ID: "e1", Error: "x"})

	assert.Len(t, s0.Messages, 1)
	assert.Len(t, s1.Messages, 2)
	assert.NotEqual(t, s2a.Messages[2].Content, s2b.Messages[2].Content)
}

func TestReduce_RepliesAppendInArrivalOrder(t *testing.T) {
	s := Initial(t0)
	s = Reduce(s, UserSent{ID: "u1", Content: "first"})
	s = Reduce(s, UserSent{ID: "u2", Content: "second"})
	s = Reduce(s, AnswerReceived{ID: "a2", Answer: domain.Answer{Answer: "second answer"}})
	assert.False(t, s.Typing, "any reply clears the indicator")
	s = Reduce(s, AnswerReceived{ID: "a1", Answer: domain.Answer{Answer: "first answer"}})

	var ids []string
	for _, m := range s.Messages {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"1", "u1", "u2", "a2", "a1"}, ids)
}

func TestBandOf(t *testing.T) {
	assert.Equal(t, BandHigh, BandOf(100))
	assert.Equal(t, BandHigh, BandOf(80))
	assert.Equal(t, BandMedium, BandOf(79))
	assert.Equal(t, BandMedium, BandOf(60))
	assert.Equal(t, BandLow, BandOf(59))
	assert.Equal(t, BandLow, BandOf(0))
}
