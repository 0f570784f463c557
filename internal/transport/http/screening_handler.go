package http

import (
	"encoding/json"
	"net/http"

	"spectrum-directory-service/internal/app"

	"github.com/go-chi/chi/v5"
)

// ScreeningHandler exposes the questionnaire engine over plain JSON for
// clients that do not hold a websocket open.
type ScreeningHandler struct {
	service *app.ScreeningService
}

func NewScreeningHandler(service *app.ScreeningService) *ScreeningHandler {
	return &ScreeningHandler{service: service}
}

type startRequest struct {
	SessionID    string `json:"sessionId"`
	InstrumentID string `json:"instrumentId"`
}

type answerRequest struct {
	Index int `json:"index"`
	Value int `json:"value"`
}

// Start creates a screening session.
func (h *ScreeningHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" || req.InstrumentID == "" {
		writeError(w, http.StatusBadRequest, "sessionId and instrumentId are required")
		return
	}
	progress, err := h.service.Start(r.Context(), req.SessionID, req.InstrumentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, progress)
}

// Instrument returns the full question set for rendering.
func (h *ScreeningHandler) Instrument(w http.ResponseWriter, r *http.Request) {
	instrument, err := h.service.Instrument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, instrument)
}

// Answer records one option selection.
func (h *ScreeningHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid answer payload")
		return
	}
	progress, err := h.service.SelectAnswer(r.Context(), chi.URLParam(r, "id"), req.Index, req.Value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// Submit scores a complete session. An incomplete session returns 200 with
// complete=false and no score; the client keeps the form on screen.
func (h *ScreeningHandler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Progress reports the answered count for a session.
func (h *ScreeningHandler) Progress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// End discards a session.
func (h *ScreeningHandler) End(w http.ResponseWriter, r *http.Request) {
	h.service.End(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
