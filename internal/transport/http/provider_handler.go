package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"spectrum-directory-service/internal/app"

	"github.com/go-chi/chi/v5"
)

// TokenVerifier checks provider access tokens.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ProviderHandler exposes the directory search and the provider edit area.
type ProviderHandler struct {
	service *app.ProviderService
	tokens  TokenVerifier
}

func NewProviderHandler(service *app.ProviderService, tokens TokenVerifier) *ProviderHandler {
	return &ProviderHandler{service: service, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Search lists providers for the directory page.
func (h *ProviderHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	providers, err := h.service.Search(r.Context(), app.ProviderQuery{
		Text:      q.Get("q"),
		City:      q.Get("city"),
		Specialty: q.Get("specialty"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

// Get returns one provider for the detail modal.
func (h *ProviderHandler) Get(w http.ResponseWriter, r *http.Request) {
	provider, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, provider)
}

// Login authenticates a provider and returns an access token.
func (h *ProviderHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Update lets a logged-in provider edit its own listing.
func (h *ProviderHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.bearerSubject(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	targetID := chi.URLParam(r, "id")
	if callerID != targetID {
		writeError(w, http.StatusForbidden, "cannot edit another provider's listing")
		return
	}

	var update app.ProviderUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update payload")
		return
	}
	provider, err := h.service.UpdateProfile(r.Context(), targetID, update)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, provider)
}

func (h *ProviderHandler) bearerSubject(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	subject, err := h.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return "", false
	}
	return subject, true
}
