// Package bankapi talks to the banking backend. Every call funnels through
// Client.Request, which never fails outright: transport errors, error
// statuses and malformed bodies are all folded into a Result.
package bankapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"bankbot/internal/config"
)

const (
	MsgConnectionError = "connection error"
	MsgUnknownError    = "unknown error"

	maxBodyBytes = 4 << 20
)

// Result is the uniform shape of every backend response. Success=false
// implies Error is set; Data is only set when Success is true.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    int             `json:"code,omitempty"`

	// Raw is the full response body, for endpoints that answer with
	// top-level fields instead of a data envelope.
	Raw json.RawMessage `json:"-"`
	// Transport is set when the backend could not be reached or answered
	// with something that is not JSON.
	Transport bool `json:"-"`
}

// Decode unmarshals Data into v. A result without data leaves v untouched.
func (r Result) Decode(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Err converts a failed result into an *Error, and returns nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Code: r.Code, Message: r.Error, Transport: r.Transport}
}

func connectionFailure() Result {
	return Result{Success: false, Error: MsgConnectionError, Code: http.StatusInternalServerError, Transport: true}
}

type Client struct {
	baseURL string
	timeout time.Duration

	mu         sync.Mutex
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.APIBaseURL,
		timeout: cfg.APITimeout,
	}
}

// session returns the shared pooled HTTP client, creating it on first use.
func (c *Client) session() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	return c.httpClient
}

// Close releases the pooled connections. The client may still be used
// afterwards; a new pool is created on the next request.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
	return nil
}

// Request issues one call to {baseURL}{path}. token, body and query are
// optional.
func (c *Client) Request(ctx context.Context, method, path, token string, body any, query url.Values) Result {
	start := time.Now()
	res, status := c.do(ctx, method, path, token, body, query)

	endpoint := endpointLabel(path)
	statusLabel := strconv.Itoa(status)
	if res.Transport {
		statusLabel = "transport_error"
	}
	apiRequestsTotal.WithLabelValues(method, endpoint, statusLabel).Inc()
	apiRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	return res
}

func (c *Client) do(ctx context.Context, method, path, token string, body any, query url.Values) (Result, int) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			log.Printf("bankapi: encode body method=%s path=%s err=%v", method, path, err)
			return Result{Success: false, Error: MsgUnknownError, Code: http.StatusInternalServerError}, 0
		}
		reader = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		log.Printf("bankapi: build request method=%s path=%s err=%v", method, path, err)
		return connectionFailure(), 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.session().Do(req)
	if err != nil {
		log.Printf("bankapi: request failed method=%s path=%s err=%v", method, path, err)
		return connectionFailure(), 0
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Printf("bankapi: read body method=%s path=%s status=%d err=%v", method, path, resp.StatusCode, err)
		return connectionFailure(), resp.StatusCode
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &payload)
		msg := payload.Error
		if msg == "" {
			msg = MsgUnknownError
		}
		log.Printf("bankapi: error response method=%s path=%s status=%d error=%q", method, path, resp.StatusCode, msg)
		return Result{Success: false, Error: msg, Code: resp.StatusCode, Raw: raw}, resp.StatusCode
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Printf("bankapi: malformed response method=%s path=%s status=%d err=%v", method, path, resp.StatusCode, err)
		return connectionFailure(), resp.StatusCode
	}
	res.Raw = raw
	if string(res.Data) == "null" {
		res.Data = nil
	}
	if !res.Success {
		res.Data = nil
		if res.Error == "" {
			res.Error = MsgUnknownError
		}
		if res.Code == 0 {
			res.Code = resp.StatusCode
		}
	}
	return res, resp.StatusCode
}

// call runs Request and decodes the data envelope into out on success.
func (c *Client) call(ctx context.Context, method, path, token string, body any, query url.Values, out any) error {
	res := c.Request(ctx, method, path, token, body, query)
	if err := res.Err(); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := res.Decode(out); err != nil {
		log.Printf("bankapi: decode data method=%s path=%s err=%v", method, path, err)
		return &Error{Code: http.StatusInternalServerError, Message: MsgUnknownError}
	}
	return nil
}

// Error is a failed backend call as seen by callers of the typed wrappers.
type Error struct {
	Code      int
	Message   string
	Transport bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("bank api error %d: %s", e.Code, e.Message)
}

// NotFound reports whether the backend refused access to, or does not know,
// the requested resource.
func (e *Error) NotFound() bool {
	return e.Code == http.StatusNotFound || e.Code == http.StatusForbidden
}
