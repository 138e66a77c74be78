// Package live is the thin HTTP boundary between the browser chat UI and
// the conversation hub. It only decodes inbound event JSON, dispatches, and
// encodes the resulting deliveries; rendering and session handling live in
// the surrounding framework.
package live

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentchat/internal/chat"
	"agentchat/internal/hub"
)

type Server struct {
	hub *hub.Hub
}

func NewServer(h *hub.Hub) *Server {
	return &Server{hub: h}
}

// Handler mounts the live routes on a fresh mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /conversations/{id}/events", s.handleEvent)
	mux.HandleFunc("GET /conversations/{id}/messages", s.handleMessages)
	mux.HandleFunc("GET /healthz", healthzHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// inboundWire is the transport shape of inbound events, stable across the
// experiment front-end variants.
type inboundWire struct {
	Event      string `json:"event"`
	Seat       int    `json:"seat"`
	Text       string `json:"text"`
	BotID      string `json:"botId"`
	IsGreeting bool   `json:"isGreeting"`
	MsgID      string `json:"msgId"`
	Target     string `json:"target"`
	Emoji      string `json:"emoji"`
	Phase      int    `json:"phase"`
}

func (w inboundWire) decode() (chat.Inbound, error) {
	switch w.Event {
	case "text":
		if w.Seat <= 0 {
			return nil, &chat.ValidationError{Reason: "text event requires a seat"}
		}
		return chat.TextSubmitted{Sender: chat.Human(w.Seat), Text: w.Text}, nil
	case "botMsg":
		if w.BotID == "" {
			return nil, &chat.ValidationError{Reason: "botMsg event requires a botId"}
		}
		return chat.BotTurnRequested{BotLabel: w.BotID, IsGreeting: w.IsGreeting}, nil
	case "reaction":
		if w.Seat <= 0 {
			return nil, &chat.ValidationError{Reason: "reaction event requires a seat"}
		}
		return chat.ReactionAdded{
			MessageID:   w.MsgID,
			Reactor:     chat.Human(w.Seat),
			Emoji:       w.Emoji,
			TargetLabel: w.Target,
		}, nil
	case "phase":
		return chat.PhaseChanged{Phase: w.Phase}, nil
	default:
		return nil, &chat.ValidationError{Reason: "unknown event " + w.Event}
	}
}

type deliveryWire struct {
	Audience string        `json:"audience"` // "all" | "requester"
	Event    chat.Outbound `json:"event"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")

	var wire inboundWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(w, http.StatusBadRequest, "malformed event body")
		return
	}
	ev, err := wire.decode()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deliveries, err := s.hub.Dispatch(r.Context(), conversationID, ev)
	if err != nil {
		var verr *chat.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, hub.ErrClosed):
			writeError(w, http.StatusGone, "conversation closed")
		default:
			log.Printf("dispatch failed for conversation %s: %v", conversationID, err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	out := make([]deliveryWire, 0, len(deliveries))
	for _, d := range deliveries {
		audience := "all"
		if d.To == chat.AudienceRequester {
			audience = "requester"
		}
		out = append(out, deliveryWire{Audience: audience, Event: d.Event})
	}
	writeJSON(w, http.StatusOK, map[string]any{"deliveries": out})
}

// handleMessages returns the cached conversation history so a refreshed
// page can re-render the chat. The snapshot is taken inside the
// conversation's loop, never concurrently with an event being applied.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	snap, err := s.hub.Snapshot(r.Context(), conversationID)
	if err != nil {
		switch {
		case errors.Is(err, hub.ErrUnknown):
			writeError(w, http.StatusNotFound, "unknown conversation")
		case errors.Is(err, hub.ErrClosed):
			writeError(w, http.StatusGone, "conversation closed")
		default:
			log.Printf("snapshot failed for conversation %s: %v", conversationID, err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	type messageWire struct {
		Sender    string         `json:"sender"`
		MsgID     string         `json:"msgId"`
		Text      string         `json:"text"`
		Tone      string         `json:"tone"`
		Reactions map[string]int `json:"reactions"`
	}
	out := make([]messageWire, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		out = append(out, messageWire{
			Sender:    m.SenderLabel,
			MsgID:     m.ID,
			Text:      m.Text,
			Tone:      m.Tone,
			Reactions: m.Reactions,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out, "phase": snap.Phase})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
