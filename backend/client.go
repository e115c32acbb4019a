package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/oygul/asil/internal/metrics"
	"github.com/oygul/asil/logging"
)

// Defaults used by New.
const (
	DefaultBaseURL  = "https://dev.api.oy-gul.uz/api"
	DefaultTimeout  = 10 * time.Second
	DefaultSort     = "updatedAt-desc"
	DefaultFeedLang = "ru"

	maxBodyBytes = 10 << 20
)

// Auth is the authenticated context of a call, read from the session state.
// An empty BearerToken sends no Authorization header.
type Auth struct {
	BearerToken string
	MerchantID  string
	BranchID    string
	UserID      string
	Language    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.httpClient.Timeout = d } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(c *Client) { c.logger = l } }

// WithMetrics records every request on m.
func WithMetrics(m *metrics.Metrics) Option { return func(c *Client) { c.metrics = m } }

// WithClock overrides the time source used for supply dates.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// Client performs OyGul API calls. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// New creates a client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.NoOpLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = logging.Component(c.logger, "backend")

	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	token   string
	cookies []*http.Cookie
}

type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (c *Client) authed(op, method, path string, auth Auth) request {
	return request{op: op, method: method, path: path, token: auth.BearerToken}
}

// call sends req and decodes the JSON body verbatim.
func (c *Client) call(ctx context.Context, req request) Result {
	resp, apiErr := c.send(ctx, req)
	if apiErr != nil {
		return fail(apiErr)
	}

	data, apiErr := decodeBody(req.op, resp)
	if apiErr != nil {
		return fail(apiErr)
	}

	return ok(data)
}

// send performs the HTTP round trip. Non-2xx statuses become errors.
func (c *Client) send(ctx context.Context, req request) (*response, *Error) {
	start := time.Now()

	resp, apiErr := c.roundTrip(ctx, req)

	code := "ok"
	if apiErr != nil {
		code = string(apiErr.Code)
		c.logger.Warn("backend.request.failed",
			"op", req.op, "method", req.method, "path", req.path,
			"code", apiErr.Code, "http_status", apiErr.HTTPStatus, "error", apiErr.Message)
	} else {
		c.logger.Debug("backend.request",
			"op", req.op, "method", req.method, "path", req.path,
			"status", resp.status, "duration_ms", time.Since(start).Milliseconds())
	}
	c.metrics.ObserveBackend(req.op, code, time.Since(start))

	return resp, apiErr
}

func (c *Client) roundTrip(ctx context.Context, req request) (*response, *Error) {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, newError(req.op, CodeInvalidArgument, 0, err.Error())
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, newError(req.op, CodeInvalidArgument, 0, err.Error())
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, ck := range req.cookies {
		httpReq.AddCookie(ck)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, newError(req.op, CodeTransport, 0, err.Error())
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, newError(req.op, CodeTransport, httpResp.StatusCode, fmt.Sprintf("read body: %v", err))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		cause := fmt.Sprintf("%d %s for url: %s", httpResp.StatusCode, http.StatusText(httpResp.StatusCode), endpoint)
		if msg := remoteMessage(raw); msg != "" {
			cause += " (" + msg + ")"
		}
		return nil, newError(req.op, codeForStatus(httpResp.StatusCode, req.token != ""), httpResp.StatusCode, cause)
	}

	return &response{status: httpResp.StatusCode, body: raw, cookies: httpResp.Cookies()}, nil
}

// decodeBody decodes a successful response. An empty body counts as success.
func decodeBody(op string, resp *response) (any, *Error) {
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return map[string]any{"status": "success"}, nil
	}

	var data any
	if err := json.Unmarshal(resp.body, &data); err != nil {
		return nil, newError(op, CodeDecode, resp.status, err.Error())
	}

	return data, nil
}

// remoteMessage extracts the API's own error message from an error body.
func remoteMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"message", "error.message", "error", "error_message"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// pathID escapes an identifier for use as a path segment.
func pathID(id string) string { return url.PathEscape(strings.TrimSpace(id)) }

func jsonBytes(v any) ([]byte, error) { return json.Marshal(v) }
