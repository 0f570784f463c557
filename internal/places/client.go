package places

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// keyParam is the upstream credential query parameter.
const keyParam = "key"

// Error is a relay failure surfaced to the caller as structured JSON.
// Message never contains any part of the credential.
type Error struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("places: %s (status %d)", e.Message, e.StatusCode)
}

// ErrCredentialMissing is returned when no upstream key is configured.
// The process stays up; only relay requests fail.
var ErrCredentialMissing = &Error{
	StatusCode: http.StatusInternalServerError,
	Message:    "places credential is not configured",
}

// Relay carries the upstream response verbatim.
type Relay struct {
	StatusCode int
	Body       []byte
}

// Client forwards place-search requests to the upstream provider, attaching
// the server-held credential so it never reaches the browser.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, key string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		key:        key,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ForwardGet relays a GET for the given upstream sub-resource. Any
// client-supplied key parameter is dropped before the real credential is
// injected, so a caller can neither leak nor override it.
func (c *Client) ForwardGet(ctx context.Context, pathSuffix string, query url.Values) (*Relay, error) {
	if c.key == "" {
		return nil, ErrCredentialMissing
	}

	target, err := url.Parse(c.baseURL + "/" + strings.TrimPrefix(pathSuffix, "/"))
	if err != nil {
		return nil, &Error{StatusCode: http.StatusBadRequest, Message: "invalid upstream path"}
	}

	merged := url.Values{}
	for name, values := range query {
		if name == keyParam {
			continue
		}
		merged[name] = values
	}
	merged.Set(keyParam, c.key)
	target.RawQuery = merged.Encode()

	return c.do(ctx, target.String())
}

// ForwardURL relays a GET for a full upstream URL (pagination links from
// earlier responses). Injection is idempotent: a URL that already carries
// the configured key is forwarded as-is, never double-keyed.
func (c *Client) ForwardURL(ctx context.Context, rawURL string) (*Relay, error) {
	if c.key == "" {
		return nil, ErrCredentialMissing
	}

	target, err := url.Parse(rawURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, &Error{StatusCode: http.StatusBadRequest, Message: "invalid url"}
	}

	query := target.Query()
	if query.Get(keyParam) != c.key {
		query.Del(keyParam)
		query.Set(keyParam, c.key)
		target.RawQuery = query.Encode()
	}

	return c.do(ctx, target.String())
}

// MaskedKey returns a short, safe-to-log prefix of the credential.
func (c *Client) MaskedKey() string {
	if len(c.key) <= 4 {
		return "****"
	}
	return c.key[:4] + "****"
}

func (c *Client) do(ctx context.Context, target string) (*Relay, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{StatusCode: http.StatusInternalServerError, Message: "failed to build upstream request"}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", zap.Error(err))
		return nil, &Error{StatusCode: http.StatusBadGateway, Message: "upstream request failed"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("upstream body read failed", zap.Error(err))
		return nil, &Error{StatusCode: http.StatusBadGateway, Message: "failed to read upstream response"}
	}

	return &Relay{StatusCode: resp.StatusCode, Body: body}, nil
}
