// internal/server/server.go
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	stderrors "barquery/internal/common/errors"
	"barquery/internal/common/logger"
	"barquery/internal/common/validation"
	"barquery/internal/service"
)

const maxRequestBody = 64 << 10

var queryRequestSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"question": {Type: "string", MinLength: intPtr(1), MaxLength: intPtr(2000)},
		"context":  {Type: "object"},
	},
	Required: []string{"question"},
}

func intPtr(v int) *int { return &v }

// QueryRequest is the POST /api/ai/query body.
type QueryRequest struct {
	Question string                 `json:"question"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
}

// Server routes the HTTP API onto the query service.
type Server struct {
	svc    *service.Service
	logger logger.Logger
}

func New(svc *service.Service, log logger.Logger) *Server {
	return &Server{
		svc:    svc,
		logger: log.With(map[string]interface{}{"component": "http-server"}),
	}
}

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/ai/query", s.handleQuery)
	mux.HandleFunc("/api/ai/status", s.handleStatus)
	mux.HandleFunc("/api/ai/usage", s.handleUsage)
	mux.HandleFunc("/healthz", s.handleHealthz)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to read request body", err.Error())
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON", err.Error())
		return
	}
	if result := validation.ValidateInput(raw, queryRequestSchema); !result.Valid {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "request validation failed", strings.Join(result.GetErrorMessages(), "; "))
		return
	}

	var req QueryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON", err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "question must not be empty", "")
		return
	}

	resp, err := s.svc.Answer(r.Context(), req.Question, req.Context)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"providers": s.svc.ProviderStatus(),
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.svc.UsageStats())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// writeServiceError maps pipeline error codes to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, stderrors.ErrRateLimitExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, stderrors.ErrNoProviderAvailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, stderrors.ErrProviderError):
		status = http.StatusBadGateway
	}

	var se *stderrors.StandardError
	if errors.As(err, &se) {
		s.writeError(w, status, string(se.Code), se.Message, se.Details)
		return
	}
	s.writeError(w, status, "INTERNAL_ERROR", err.Error(), "")
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message, details string) {
	var body errorResponse
	body.Error.Code = code
	body.Error.Message = message
	body.Error.Details = details
	s.writeJSON(w, status, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("response encoding failed", nil)
	}
}
