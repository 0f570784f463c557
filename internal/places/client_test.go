package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestForwardGetInjectsKeyAndRelays(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"OK","results":[]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "secret-key", time.Second, zap.NewNop())

	query := url.Values{}
	query.Set("query", "Walmart")
	query.Set("key", "client-supplied") // must be dropped, not forwarded
	relay, err := client.ForwardGet(context.Background(), "textsearch/json", query)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}

	if gotPath != "/textsearch/json" {
		t.Fatalf("unexpected upstream path %q", gotPath)
	}
	if gotQuery.Get("query") != "Walmart" {
		t.Fatalf("query param not forwarded: %v", gotQuery)
	}
	if keys := gotQuery["key"]; len(keys) != 1 || keys[0] != "secret-key" {
		t.Fatalf("expected exactly the server key upstream, got %v", keys)
	}
	if relay.StatusCode != http.StatusOK || string(relay.Body) != `{"status":"OK","results":[]}` {
		t.Fatalf("relay not verbatim: %d %s", relay.StatusCode, relay.Body)
	}
}

func TestForwardGetRelaysUpstreamErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "secret-key", time.Second, zap.NewNop())
	relay, err := client.ForwardGet(context.Background(), "textsearch/json", nil)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if relay.StatusCode != http.StatusForbidden {
		t.Fatalf("expected upstream status relayed, got %d", relay.StatusCode)
	}
	if !strings.Contains(string(relay.Body), "REQUEST_DENIED") {
		t.Fatalf("expected upstream body relayed, got %s", relay.Body)
	}
}

func TestForwardURLInjectionIsIdempotent(t *testing.T) {
	var gotKeys []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKeys = r.URL.Query()["key"]
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "secret-key", time.Second, zap.NewNop())

	// First pass: no key on the URL, one gets injected.
	if _, err := client.ForwardURL(context.Background(), upstream.URL+"/page?pagetoken=abc"); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(gotKeys) != 1 || gotKeys[0] != "secret-key" {
		t.Fatalf("expected injected key, got %v", gotKeys)
	}

	// Second pass: the already-keyed URL must not gain a second key.
	keyed := upstream.URL + "/page?pagetoken=abc&key=secret-key"
	if _, err := client.ForwardURL(context.Background(), keyed); err != nil {
		t.Fatalf("forward keyed: %v", err)
	}
	if len(gotKeys) != 1 || gotKeys[0] != "secret-key" {
		t.Fatalf("expected single key after repeat forward, got %v", gotKeys)
	}
}

func TestForwardURLReplacesForeignKey(t *testing.T) {
	var gotKeys []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKeys = r.URL.Query()["key"]
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "secret-key", time.Second, zap.NewNop())
	if _, err := client.ForwardURL(context.Background(), upstream.URL+"/page?key=attacker"); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(gotKeys) != 1 || gotKeys[0] != "secret-key" {
		t.Fatalf("foreign key must be replaced, got %v", gotKeys)
	}
}

func TestForwardURLRejectsBadURLs(t *testing.T) {
	client := NewClient("https://upstream.example.com", "secret-key", time.Second, zap.NewNop())

	for _, raw := range []string{"", "not-a-url", "/relative/only"} {
		_, err := client.ForwardURL(context.Background(), raw)
		placesErr, ok := err.(*Error)
		if !ok || placesErr.StatusCode != http.StatusBadRequest {
			t.Fatalf("url %q: expected 400 error, got %v", raw, err)
		}
	}
}

func TestMissingCredential(t *testing.T) {
	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "", time.Second, zap.NewNop())

	_, err := client.ForwardGet(context.Background(), "textsearch/json", nil)
	if err != ErrCredentialMissing {
		t.Fatalf("expected credential error, got %v", err)
	}
	if _, err := client.ForwardURL(context.Background(), upstream.URL); err != ErrCredentialMissing {
		t.Fatalf("expected credential error, got %v", err)
	}
	if called {
		t.Fatalf("no outbound call may be made without a credential")
	}
}

func TestUnreachableUpstream(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "secret-key", 200*time.Millisecond, zap.NewNop())
	_, err := client.ForwardGet(context.Background(), "textsearch/json", nil)
	placesErr, ok := err.(*Error)
	if !ok || placesErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected bad gateway error, got %v", err)
	}
	if strings.Contains(placesErr.Message, "secret") {
		t.Fatalf("error message leaked the credential: %q", placesErr.Message)
	}
}

func TestMaskedKey(t *testing.T) {
	client := NewClient("https://upstream.example.com", "abcdef123456", time.Second, zap.NewNop())
	masked := client.MaskedKey()
	if masked != "abcd****" {
		t.Fatalf("unexpected mask %q", masked)
	}
	short := NewClient("https://upstream.example.com", "ab", time.Second, zap.NewNop())
	if short.MaskedKey() != "****" {
		t.Fatalf("short keys must be fully masked, got %q", short.MaskedKey())
	}
}
