package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"spectrum-directory-service/internal/places"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Forwarder is the outbound side of the key-masking relay.
type Forwarder interface {
	ForwardGet(ctx context.Context, pathSuffix string, query url.Values) (*places.Relay, error)
	ForwardURL(ctx context.Context, rawURL string) (*places.Relay, error)
}

// ProxyHandler exposes the places relay endpoints. All failures become
// structured JSON; nothing here can take the process down.
type ProxyHandler struct {
	forwarder Forwarder
	logger    *zap.Logger
}

func NewProxyHandler(forwarder Forwarder, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{forwarder: forwarder, logger: logger}
}

type postRelayRequest struct {
	URL string `json:"url"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Get relays GET /api/google-places/{subresource...} to the upstream.
func (h *ProxyHandler) Get(w http.ResponseWriter, r *http.Request) {
	suffix := chi.URLParam(r, "*")
	relay, err := h.forwarder.ForwardGet(r.Context(), suffix, r.URL.Query())
	if err != nil {
		h.writeForwardError(w, err)
		return
	}
	h.writeRelay(w, relay)
}

// Post relays a full upstream URL taken from the request body.
func (h *ProxyHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req postRelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	relay, err := h.forwarder.ForwardURL(r.Context(), req.URL)
	if err != nil {
		h.writeForwardError(w, err)
		return
	}
	h.writeRelay(w, relay)
}

// Health is a liveness probe for infrastructure monitoring.
func (h *ProxyHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Message:   "directory service is running",
		Timestamp: time.Now().UTC(),
	})
}

// writeRelay copies the upstream status and body byte-for-byte.
func (h *ProxyHandler) writeRelay(w http.ResponseWriter, relay *places.Relay) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(relay.StatusCode)
	_, _ = w.Write(relay.Body)
}

func (h *ProxyHandler) writeForwardError(w http.ResponseWriter, err error) {
	var placesErr *places.Error
	if errors.As(err, &placesErr) {
		writeError(w, placesErr.StatusCode, placesErr.Message)
		return
	}
	h.logger.Error("relay failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "relay failed")
}
