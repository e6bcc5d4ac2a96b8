package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/debreselam/schoolbot/internal/render"
	"github.com/debreselam/schoolbot/internal/session"
)

const maxBodyBytes = 64 << 10

type handler struct {
	machine Machine
	log     logrus.FieldLogger
}

// EventRequest is the body of POST /v1/sessions/{sessionID}/events.
type EventRequest struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Code   string `json:"code,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Name   string `json:"name,omitempty"`
	Action string `json:"action,omitempty"`
}

// EventResponse carries the machine's responses both raw and rendered.
type EventResponse struct {
	Responses []ResponseView   `json:"responses"`
	Messages  []render.Message `json:"messages"`
}

// ResponseView is a session.Response tagged with its kind.
type ResponseView struct {
	Type  string `json:"type"`
	Body  any    `json:"body,omitempty"`
	Error string `json:"error,omitempty"`
}

var errBadEvent = errors.New("invalid event")

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.machine.Sessions(),
	})
}

func (h *handler) postEvent(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sessionID")
	log := h.log.WithField("session_id", sid)

	var req EventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.WithError(err).Warn("invalid event body")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ev, err := toEvent(sid, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out := h.machine.Handle(r.Context(), ev)
	respondJSON(w, http.StatusOK, EventResponse{
		Responses: views(out),
		Messages:  render.All(out),
	})
}

func toEvent(sid string, req EventRequest) (session.Event, error) {
	if strings.TrimSpace(sid) == "" {
		return nil, fmt.Errorf("%w: session id required", errBadEvent)
	}
	switch req.Type {
	case "restart":
		return session.Restart{Session: sid}, nil
	case "language":
		return session.SelectLanguage{Session: sid, Code: req.Code}, nil
	case "text":
		return session.SubmitText{Session: sid, Text: req.Text}, nil
	case "contact":
		return session.ShareContact{Session: sid, Phone: req.Phone, DisplayName: req.Name}, nil
	case "action":
		if req.Action == "" {
			return nil, fmt.Errorf("%w: action required", errBadEvent)
		}
		return session.InvokeAction{Session: sid, Action: req.Action}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", errBadEvent, req.Type)
}

func views(rs []session.Response) []ResponseView {
	out := make([]ResponseView, 0, len(rs))
	for _, r := range rs {
		out = append(out, view(r))
	}
	return out
}

func view(r session.Response) ResponseView {
	switch r := r.(type) {
	case session.Rejected:
		return ResponseView{Type: "rejected", Error: r.Reason.Error()}
	case session.Prompt:
		return ResponseView{Type: "prompt", Body: r}
	case session.MenuReady:
		return ResponseView{Type: "menu", Body: r}
	case session.QuestionReady:
		return ResponseView{Type: "question", Body: r}
	case session.AnswerGraded:
		return ResponseView{Type: "graded", Body: r}
	case session.QuizResult:
		return ResponseView{Type: "result", Body: r}
	case session.LanguageMenu:
		return ResponseView{Type: "language_menu", Body: r}
	case session.Notice:
		return ResponseView{Type: "notice", Body: r}
	case session.Info:
		return ResponseView{Type: "info", Body: r}
	case session.Choices:
		return ResponseView{Type: "choices", Body: r}
	}
	return ResponseView{Type: "unknown"}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
