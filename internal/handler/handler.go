package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mshevtsov/concilium/internal/model"
	"github.com/mshevtsov/concilium/internal/orchestrator"
	"github.com/mshevtsov/concilium/internal/session"
	"github.com/mshevtsov/concilium/internal/store"
)

// heartbeatInterval is the maximum SSE silence before a keep-alive event.
const heartbeatInterval = 15 * time.Second

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	engine   *orchestrator.Engine
	sessions *session.Store
	archive  *store.Store
}

// New creates a new Handler.
func New(engine *orchestrator.Engine, sessions *session.Store, archive *store.Store) *Handler {
	return &Handler{engine: engine, sessions: sessions, archive: archive}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Post("/api/evaluate", h.handleEvaluate)
	r.Post("/api/evaluate/stream", h.handleEvaluateStream)
	r.Get("/api/evaluations", h.handleListEvaluations)
	r.Get("/api/evaluations/{id}", h.handleGetEvaluation)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEvaluate runs a full evaluation synchronously and returns the result.
// Validation failure is the only 4xx path; a started evaluation always
// produces a 200 with a result, degraded or not.
func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	run := h.sessions.Create()
	res, err := h.engine.Evaluate(r.Context(), run.ID, req, run.Log)
	if err != nil {
		h.sessions.Delete(run.ID)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	run.SetResult(res)
	h.archiveResult(res)

	writeJSON(w, http.StatusOK, res)
}

// handleEvaluateStream runs an evaluation while streaming every discussion
// entry to the client as SSE, with heartbeats during silence and a terminal
// evaluation_complete event carrying the full result.
func (h *Handler) handleEvaluateStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	run := h.sessions.Create()
	entries, cancel := run.Log.Subscribe(256)
	defer cancel()

	// The evaluation is bounded by its own time budget, not by the client
	// connection: a dropped consumer must not abort a run that is still
	// retrievable by ID.
	resultCh := make(chan model.EvaluationResult, 1)
	go func() {
		res, err := h.engine.Evaluate(context.Background(), run.ID, req, run.Log)
		if err != nil {
			slog.Error("streamed evaluation failed", "id", run.ID, "error", err)
		} else {
			run.SetResult(res)
			h.archiveResult(res)
		}
		resultCh <- res
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeSSE(w, "stream_start", map[string]string{"id": run.ID})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case e, open := <-entries:
			if !open {
				// Log closed: the run is done. Emit the terminal event.
				res := <-resultCh
				writeSSE(w, "evaluation_complete", map[string]any{"evaluation": res})
				flusher.Flush()
				return
			}
			writeSSE(w, "chat_message", e)
			flusher.Flush()
			heartbeat.Reset(heartbeatInterval)
		case <-heartbeat.C:
			writeSSE(w, "heartbeat", map[string]int64{"ts": time.Now().Unix()})
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) handleListEvaluations(w http.ResponseWriter, _ *http.Request) {
	records, err := h.archive.ListRecords()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Recent runs live in the session store; older ones only in the archive.
	if run := h.sessions.Get(id); run != nil {
		if res := run.Result(); res != nil {
			writeJSON(w, http.StatusOK, res)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "in_progress"})
		return
	}

	res, err := h.archive.GetResult(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "evaluation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) archiveResult(res model.EvaluationResult) {
	if h.archive == nil {
		return
	}
	if err := h.archive.SaveResult(res); err != nil {
		slog.Error("archive evaluation", "id", res.ID, "error", err)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (model.EvaluateRequest, bool) {
	var req model.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return req, false
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeSSE(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("encode SSE payload", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}
