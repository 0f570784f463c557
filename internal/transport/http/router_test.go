package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spectrum-directory-service/internal/app"
	"spectrum-directory-service/internal/auth"
	"spectrum-directory-service/internal/domain"
	"spectrum-directory-service/internal/infra/memory"
	"spectrum-directory-service/internal/places"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// newTestServer stands up the full router on in-memory infrastructure.
func newTestServer(t *testing.T, upstreamURL, placesKey string) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	sessionStore := memory.NewSessionStore()
	instrumentRepo := memory.NewInstrumentRepository(memory.NewStaticInstrumentLoader(map[string]domain.Instrument{
		"screen-1": routerTestInstrument(),
	}), time.Minute)
	screeningService := app.NewScreeningService(sessionStore, instrumentRepo)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw-one"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	providerRepo := memory.NewProviderRepository([]domain.Provider{
		{ID: "p1", Name: "Alpha Therapy", Specialty: "ABA Therapy", City: "Portland",
			Email: "a@example.com", PasswordHash: string(hash)},
		{ID: "p2", Name: "Beta Clinic", Specialty: "Speech Therapy", City: "Salem",
			Email: "b@example.com"},
	})
	tokens := auth.NewManager("test-secret", time.Hour)
	providerService := app.NewProviderService(providerRepo, tokens)

	placesClient := places.NewClient(upstreamURL, placesKey, time.Second, logger)

	router := NewRouter(
		nil,
		NewProxyHandler(placesClient, logger),
		NewScreeningHandler(screeningService),
		NewProviderHandler(providerService, tokens),
		NewWSHandler(screeningService, logger),
	)
	return httptest.NewServer(router)
}

func routerTestInstrument() domain.Instrument {
	options := []domain.Option{
		{Value: 1, Label: "Yes"},
		{Value: 0, Label: "No"},
	}
	return domain.Instrument{
		ID:        "screen-1",
		Name:      "Three question screener",
		Threshold: 2,
		Questions: []domain.Question{
			{Index: 1, Text: "Question one", Options: options},
			{Index: 2, Text: "Question two", Options: options},
			{Index: 3, Text: "Question three", Options: options},
		},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestScreeningRESTFlow(t *testing.T) {
	server := newTestServer(t, "https://upstream.example.com", "secret-key")
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/screenings", map[string]string{
		"sessionId": "s1", "instrumentId": "screen-1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Incomplete submit: 200, no result.
	resp = postJSON(t, server.URL+"/api/screenings/s1/submit", nil)
	var result domain.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if result.Complete {
		t.Fatalf("expected incomplete result, got %+v", result)
	}

	for i := 1; i <= 3; i++ {
		resp = postJSON(t, server.URL+"/api/screenings/s1/answers", map[string]int{"index": i, "value": 1})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("answer %d: expected 200, got %d", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp = postJSON(t, server.URL+"/api/screenings/s1/submit", nil)
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if !result.Complete || result.Score != 3 || !result.Positive {
		t.Fatalf("expected complete positive score 3, got %+v", result)
	}
}

func TestInstrumentEndpoint(t *testing.T) {
	server := newTestServer(t, "https://upstream.example.com", "secret-key")
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/instruments/screen-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var instrument domain.Instrument
	if err := json.NewDecoder(resp.Body).Decode(&instrument); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if instrument.QuestionCount() != 3 {
		t.Fatalf("expected 3 questions, got %+v", instrument)
	}

	missing, err := http.Get(server.URL + "/api/instruments/unknown")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}

func TestProviderSearchAndDetail(t *testing.T) {
	server := newTestServer(t, "https://upstream.example.com", "secret-key")
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/providers?city=Portland")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var providers []domain.Provider
	if err := json.NewDecoder(resp.Body).Decode(&providers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if len(providers) != 1 || providers[0].ID != "p1" {
		t.Fatalf("expected p1 only, got %+v", providers)
	}

	detail, err := http.Get(server.URL + "/api/providers/p2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer detail.Body.Close()
	var provider domain.Provider
	if err := json.NewDecoder(detail.Body).Decode(&provider); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if provider.Name != "Beta Clinic" {
		t.Fatalf("unexpected detail: %+v", provider)
	}
}

func TestProviderLoginAndEdit(t *testing.T) {
	server := newTestServer(t, "https://upstream.example.com", "secret-key")
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/providers/login", map[string]string{
		"email": "a@example.com", "password": "pw-one",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil || login.Token == "" {
		t.Fatalf("expected token, err=%v", err)
	}
	resp.Body.Close()

	update := func(target, token string) *http.Response {
		body, _ := json.Marshal(map[string]string{"phone": "555-0100"})
		req, err := http.NewRequest(http.MethodPut, server.URL+"/api/providers/"+target, bytes.NewReader(body))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		return resp
	}

	// Own listing succeeds.
	resp = update("p1", login.Token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit own: expected 200, got %d", resp.StatusCode)
	}
	var updated domain.Provider
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil || updated.Phone != "555-0100" {
		t.Fatalf("expected phone update, err=%v got %+v", err, updated)
	}
	resp.Body.Close()

	// Someone else's listing is forbidden.
	resp = update("p2", login.Token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("edit other: expected 403, got %d", resp.StatusCode)
	}

	// No token at all.
	resp = update("p1", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("edit without token: expected 401, got %d", resp.StatusCode)
	}

	// Bad password never yields a token.
	resp = postJSON(t, server.URL+"/api/providers/login", map[string]string{
		"email": "a@example.com", "password": "wrong",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}
}
