// Package handlers exposes the chat agent and the task store over
// HTTP: JSON chat, SSE streaming, a websocket surface and per-user
// data endpoints (export, import, backup, stats).
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"snello/agent"
	"snello/memory"
	"snello/sse"
)

// Deps holds shared dependencies injected into handlers.
type Deps struct {
	Sessions *SessionManager
	EventBus *EventBus
	Log      *zap.Logger
}

// RegisterRoutes registers all routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, deps *Deps) {
	if deps.EventBus == nil {
		deps.EventBus = NewEventBus()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	h := &chatHandler{deps: deps}

	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /chat", h.chat)
	mux.HandleFunc("POST /chat/stream", h.chatStream)
	mux.HandleFunc("GET /ws", h.websocketChat)
	mux.HandleFunc("GET /events", h.taskEvents)

	mux.HandleFunc("GET /users/{id}/tasks", h.tasks)
	mux.HandleFunc("GET /users/{id}/stats", h.stats)
	mux.HandleFunc("GET /users/{id}/export", h.exportUser)
	mux.HandleFunc("POST /users/{id}/import", h.importUser)
	mux.HandleFunc("POST /users/{id}/backup", h.backup)
}

type chatHandler struct {
	deps *Deps
}

func (h *chatHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Chat ---

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (h *chatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	sess, err := h.deps.Sessions.Get(req.UserID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if agent.IsExitKeyword(req.Message) {
		writeJSON(w, http.StatusOK, map[string]any{
			"reply": agent.GoodbyeReply,
			"exit":  true,
		})
		return
	}

	reply, err := sess.Agent.Chat(r.Context(), req.Message)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.deps.EventBus.Broadcast(TaskEvent{UserID: req.UserID, Kind: "tasks_changed"})
	writeJSON(w, http.StatusOK, map[string]any{"reply": reply, "exit": false})
}

// --- Chat (SSE stream) ---

func (h *chatHandler) chatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	// Validate before SSE headers are sent (NewWriter commits 200).
	sess, err := h.deps.Sessions.Get(req.UserID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writer := sse.NewWriter(w)
	if writer == nil {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	if agent.IsExitKeyword(req.Message) {
		writer.SendEvent("done", map[string]any{"reply": agent.GoodbyeReply, "exit": true})
		return
	}

	start := time.Now()
	eventCh := make(chan agent.StreamEvent, 64)
	go sess.Agent.ChatStream(r.Context(), req.Message, eventCh)

	for evt := range eventCh {
		switch evt.Event {
		case "done":
			h.deps.EventBus.Broadcast(TaskEvent{UserID: req.UserID, Kind: "tasks_changed"})
			data := map[string]any{"total_duration_ms": time.Since(start).Milliseconds()}
			if m, ok := evt.Data.(map[string]any); ok {
				for k, v := range m {
					data[k] = v
				}
			}
			writer.SendEvent("done", data)
		case "error":
			writer.SendEvent("error", evt.Data)
		default:
			writer.SendEvent(evt.Event, evt)
		}
	}
}

// --- Chat (websocket) ---

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Single-user local assistant; the browser page is served from
	// anywhere during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsIncoming struct {
	Message string `json:"message"`
}

func (h *chatHandler) websocketChat(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	sess, err := h.deps.Sessions.Get(userID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.deps.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		var in wsIncoming
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.deps.Log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		if agent.IsExitKeyword(in.Message) {
			conn.WriteJSON(agent.StreamEvent{Event: "done", Data: map[string]any{
				"reply": agent.GoodbyeReply, "exit": true,
			}})
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
			return
		}

		eventCh := make(chan agent.StreamEvent, 64)
		go sess.Agent.ChatStream(r.Context(), in.Message, eventCh)
		for evt := range eventCh {
			if err := conn.WriteJSON(evt); err != nil {
				h.deps.Log.Warn("websocket write failed", zap.Error(err))
				return
			}
		}
		h.deps.EventBus.Broadcast(TaskEvent{UserID: userID, Kind: "tasks_changed"})
	}
}

// --- Task-change events (SSE relay) ---

func (h *chatHandler) taskEvents(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	writer := sse.NewWriter(w)
	if writer == nil {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch := h.deps.EventBus.Subscribe()
	defer h.deps.EventBus.Unsubscribe(ch)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-ch:
			if userID != "" && evt.UserID != userID {
				continue
			}
			writer.SendEvent(evt.Kind, evt)
		case <-ticker.C:
			writer.SendComment("keep-alive")
		}
	}
}

// --- Per-user data ---

func (h *chatHandler) tasks(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Store.Tasks())
}

func (h *chatHandler) stats(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Store.Stats())
}

func (h *chatHandler) exportUser(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.Store.Export())
}

func (h *chatHandler) importUser(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := memory.ImportMerge
	if r.URL.Query().Get("mode") == "overwrite" {
		mode = memory.ImportOverwrite
	}

	var snap memory.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid snapshot JSON: "+err.Error())
		return
	}

	if err := sess.Store.Import(&snap, mode); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.deps.EventBus.Broadcast(TaskEvent{UserID: sess.UserID, Kind: "tasks_changed"})
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "mode": string(mode)})
}

func (h *chatHandler) backup(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, err := sess.Store.Backup()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
