package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"handbookbot/internal/domain"
)

const (
	msgQuestionRequired = "Question is required"
	msgProcessingFailed = "Failed to process question. Please try again."
)

type queryRequest struct {
	Question string `json:"question"`
}

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Error("decode query request", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgProcessingFailed, Details: err.Error()})
		return
	}

	answer, err := s.asker.Answer(r.Context(), req.Question)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgQuestionRequired})
		return
	case err != nil:
		s.logger.Error("answer question", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgProcessingFailed, Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
