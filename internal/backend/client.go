package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dance-storefront/internal/model"
	"dance-storefront/pkg/apierror"
)

const maxResponseBytes = 4 << 20

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID stores the inbound request id so outgoing backend calls carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type RequestOptions struct {
	Token  string
	Body   any
	Header http.Header
}

// Client talks to the headless content backend. All paths are relative to
// baseURL+prefix and every call is a single attempt.
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client
}

func New(baseURL string, prefix string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		prefix:     "/" + strings.Trim(strings.TrimSpace(prefix), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient is New with a caller-supplied transport, used by tests.
func NewWithHTTPClient(baseURL string, prefix string, httpClient *http.Client) *Client {
	c := New(baseURL, prefix, 0)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL builds the absolute request URL for path and query.
func (c *Client) URL(path string, query any) string {
	prefix := c.prefix
	if prefix == "/" {
		prefix = ""
	}

	requestURL := c.baseURL + prefix + "/" + strings.TrimLeft(path, "/")
	if encoded := EncodeQuery(query); encoded != "" {
		requestURL += "?" + encoded
	}

	return requestURL
}

// Request performs one backend call and decodes the JSON response into out
// (which may be nil). Failures are returned as *apierror.APIError whose
// Error() names the cause and the attempted URL.
func (c *Client) Request(ctx context.Context, method string, path string, query any, opts RequestOptions, out any) error {
	requestURL := c.URL(path, query)

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return transportError(requestURL, err)
	}

	for key, values := range opts.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logFailure(ctx, method, requestURL, 0, err)
		return transportError(requestURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logFailure(ctx, method, requestURL, resp.StatusCode, err)
		return transportError(requestURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := statusError(requestURL, resp.StatusCode, raw)
		c.logFailure(ctx, method, requestURL, resp.StatusCode, statusErr)
		return statusErr
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		malformed := apierror.Wrap(apierror.KindMalformed, "MALFORMED_RESPONSE", "backend returned an unreadable response", http.StatusBadGateway,
			fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)).
			WithDetails(fmt.Sprintf("connection failed: %v. URL: %s", err, requestURL))
		c.logFailure(ctx, method, requestURL, resp.StatusCode, malformed)
		return malformed
	}

	return nil
}

func (c *Client) Get(ctx context.Context, path string, query any, token string, out any) error {
	return c.Request(ctx, http.MethodGet, path, query, RequestOptions{Token: token}, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, token string, out any) error {
	return c.Request(ctx, http.MethodPost, path, nil, RequestOptions{Token: token, Body: body}, out)
}

func (c *Client) logFailure(ctx context.Context, method string, requestURL string, status int, err error) {
	slog.WarnContext(ctx, "backend request failed",
		"method", method,
		"url", requestURL,
		"status", status,
		"request_id", RequestIDFrom(ctx),
		"error", err,
	)
}

type errorEnvelope struct {
	Error *struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func transportError(requestURL string, cause error) *apierror.APIError {
	return apierror.Wrap(apierror.KindTransport, "BACKEND_UNAVAILABLE", "could not reach the content backend", http.StatusBadGateway, cause).
		WithDetails(fmt.Sprintf("connection failed: %v. URL: %s", cause, requestURL))
}

func statusError(requestURL string, status int, raw []byte) *apierror.APIError {
	message := http.StatusText(status)
	provided := false
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil && strings.TrimSpace(envelope.Error.Message) != "" {
		message = envelope.Error.Message
		provided = true
	}
	if message == "" {
		message = fmt.Sprintf("backend responded with status %d", status)
	}

	kind := apierror.KindStatus
	httpStatus := http.StatusBadGateway
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = apierror.KindAuth
		httpStatus = status
	case status == http.StatusNotFound:
		kind = apierror.KindNotFound
		httpStatus = status
	case status >= 400 && status < 500:
		httpStatus = status
	}

	cause := &StatusError{Status: status, Message: message, Provided: provided}
	return apierror.Wrap(kind, "BACKEND_ERROR", message, httpStatus, cause).
		WithDetails(fmt.Sprintf("connection failed: %s. URL: %s", message, requestURL))
}

// StatusError is the cause attached to non-2xx backend responses. Provided
// reports whether Message came from the backend's error payload.
type StatusError struct {
	Status   int
	Message  string
	Provided bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

// BackendMessage returns the message from the backend's error payload, if any.
func BackendMessage(err error) (string, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Provided {
		return statusErr.Message, true
	}
	return "", false
}

// UpstreamStatus returns the backend HTTP status carried by err, or 0.
func UpstreamStatus(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}
