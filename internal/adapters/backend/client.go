// Package backend talks to the EncinApp REST API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
	"github.com/encinapp/encinapp/internal/pkg/telemetry"
)

var (
	json   = jsoniter.ConfigCompatibleWithStandardLibrary
	tracer = otel.Tracer("github.com/encinapp/encinapp/internal/adapters/backend")
)

// Config holds the connection settings of the REST backend.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type authMode int

const (
	authNone     authMode = iota // never send a token
	authOptional                 // send the token when logged in
	authRequired                 // fail with ErrUnauthenticated when logged out
)

// Client issues JSON requests against the backend. It holds no token of its
// own and asks creds for one on every call.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	http      *fasthttp.Client
	creds     ports.Credentials
}

// New creates a backend client. creds may be nil when only anonymous calls are made.
func New(cfg Config, creds ports.Credentials) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   timeout,
		userAgent: cfg.UserAgent,
		creds:     creds,
		http: &fasthttp.Client{
			Name:                cfg.UserAgent,
			MaxConnsPerHost:     32,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
}

type call struct {
	op     string
	method string
	path   string
	auth   authMode
	in     any
	out    any
}

// do runs one request. A non-2xx reply becomes a *domain.BackendError wrapped
// in the matching domain sentinel.
func (c *Client) do(ctx context.Context, cl call) (err error) {
	ctx, span := tracer.Start(ctx, "backend."+cl.op)
	span.SetAttributes(
		attribute.String(telemetry.AttrHTTPMethod, cl.method),
		attribute.String(telemetry.AttrHTTPPath, cl.path),
	)
	start := time.Now()
	defer func() {
		metrics.ObserveBackend(cl.op, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	token, err := c.token(ctx, cl.auth)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(c.baseURL + cl.path)
	req.Header.SetMethod(cl.method)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.SetUserAgent(c.userAgent)
	}
	if token != "" {
		// The backend expects the bare token, without a Bearer prefix.
		req.Header.Set("Authorization", token)
	}
	if cl.in != nil {
		body, err := json.Marshal(cl.in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", cl.op, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < c.timeout {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrBackendUnavailable, cl.method, cl.path, err)
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int(telemetry.AttrHTTPStatusCode, status))
	body := resp.Body()

	if status < 200 || status > 299 {
		return statusError(status, body)
	}
	if cl.out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, cl.out); err != nil {
		return fmt.Errorf("decode %s response: %w", cl.op, err)
	}
	return nil
}

func (c *Client) token(ctx context.Context, mode authMode) (string, error) {
	if mode == authNone {
		return "", nil
	}
	if c.creds == nil {
		if mode == authRequired {
			return "", domain.ErrUnauthenticated
		}
		return "", nil
	}
	token, err := c.creds.Token(ctx)
	if err != nil {
		if mode == authRequired {
			return "", err
		}
		return "", nil
	}
	return token, nil
}

func statusError(status int, body []byte) error {
	be := &domain.BackendError{Status: status, Message: errorMessage(body)}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, be)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, be)
	}
	return be
}

// errorMessage pulls the human-readable reason out of an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// backendMessage returns the backend's message for err, if it carries one.
func backendMessage(err error) string {
	var be *domain.BackendError
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}

// jsonBody captures a raw response for envelope decoding.
type jsonBody []byte

func (b *jsonBody) UnmarshalJSON(data []byte) error {
	*b = append((*b)[:0], data...)
	return nil
}
