package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"question":"Dress code?"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer":     "Business casual.",
			"sources":    []map[string]any{{"id": 0, "score": 0.82, "text": "Dress is business casual.", "relevance": 82}},
			"confidence": 82,
		})
	}))
	defer srv.Close()

	ans, err := New(srv.URL+"/", 0).Ask(context.Background(), "Dress code?")
	require.NoError(t, err)
	assert.Equal(t, "Business casual.", ans.Answer)
	assert.Equal(t, 82, ans.Confidence)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, 82, ans.Sources[0].Relevance)
}

func TestAsk_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to process question. Please try again.","details":"generation failed: boom"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).Ask(context.Background(), "q")
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusInternalServerError, respErr.Status)
	assert.Equal(t, "Failed to process question. Please try again.", respErr.Error())
	assert.Equal(t, "generation failed: boom", respErr.Details)
	assert.False(t, errors.Is(err, ErrUnreachable))
}

func TestAsk_ErrorResponseWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).Ask(context.Background(), "q")
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, "HTTP 502", respErr.Error())
}

func TestAsk_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, 0).Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestAsk_UndecodableAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrUnreachable)
}
