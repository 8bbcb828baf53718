package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rl1809/accommodator/internal/adapter/render"
	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/core/service"
)

// Conversation is the engine entry point transports feed messages into.
type Conversation interface {
	Handle(ctx context.Context, msg domain.Message) service.Reply
}

type HTTPHandler struct {
	engine  Conversation
	timeout time.Duration
}

type MessageHTTPRequest struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Text      string `json:"text"`
}

// MessageHTTPResponse omits Stage when StateKept is set: the conversation was
// left as stored and its stage is unknown to this request.
type MessageHTTPResponse struct {
	Stage     string `json:"stage,omitempty"`
	StateKept bool   `json:"state_kept,omitempty"`
	Kind      string `json:"kind"`
	Code      string `json:"code,omitempty"`
	Reply     string `json:"reply"`
}

type errorHTTPResponse struct {
	Message string `json:"message"`
}

func NewHTTPHandler(engine Conversation, timeout time.Duration) *HTTPHandler {
	return &HTTPHandler{engine: engine, timeout: timeout}
}

func (h *HTTPHandler) Message(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorHTTPResponse{Message: "invalid request body"})
		return
	}

	if req.UserID == 0 || strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorHTTPResponse{Message: "missing required fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reply := h.engine.Handle(ctx, domain.Message{
		UserID:    req.UserID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Text:      req.Text,
	})

	resp := MessageHTTPResponse{
		StateKept: reply.StateKept,
		Kind:      reply.Kind.String(),
		Code:      reply.Code,
		Reply:     render.Text(reply),
	}
	if !reply.StateKept {
		resp.Stage = reply.Stage.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
