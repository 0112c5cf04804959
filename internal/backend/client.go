// Package backend is the typed REST client for the remote mailing backend.
// The backend owns all business data; the console only ever reaches it
// through this package. Every call runs under the caller's context, carries
// a request id, and is traced and logged.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans created by the client.
const tracerName = "github.com/keyxmakerx/mailroom/internal/backend"

// tokenTTL is the lifetime of the bearer token minted per call.
const tokenTTL = 5 * time.Minute

// Client talks to the mailing backend. Resource groups hang off it as
// fields so call sites read like client.Campaigns.Execute(ctx, id).
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	jwtSecret []byte
	tracer    trace.Tracer

	Templates *TemplatesService
	Contacts  *ContactsService
	Campaigns *CampaignsService
	Emails    *EmailsService
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Tests pass the
// httptest server's client here.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithJWTSecret enables HS256 bearer tokens signed with secret. An empty
// secret leaves calls unauthenticated.
func WithJWTSecret(secret string) Option {
	return func(c *Client) {
		if secret != "" {
			c.jwtSecret = []byte(secret)
		}
	}
}

// New creates a client for the API rooted at baseURL
// (e.g. "http://localhost:5000/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Templates = &TemplatesService{c: c}
	c.Contacts = &ContactsService{c: c}
	c.Campaigns = &CampaignsService{c: c}
	c.Emails = &EmailsService{c: c}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// endpoint joins path (and optional query) onto the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// doJSON sends a JSON request (body may be nil) and returns the raw
// response body of a 2xx reply. Non-2xx replies become *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, path)
}

// send decorates req with the ambient headers, runs it inside a client span
// and reads the reply. Transport errors are wrapped, never replaced.
func (c *Client) send(req *http.Request, path string) ([]byte, error) {
	ctx, span := c.tracer.Start(req.Context(), req.Method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	req.Header.Set("Accept", "application/json")
	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	if c.jwtSecret != nil {
		token, err := c.bearerToken(ctx)
		if err != nil {
			span.SetStatus(codes.Error, "signing token")
			return nil, fmt.Errorf("signing backend token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		slog.DebugContext(ctx, "backend call failed",
			slog.String("method", req.Method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.Duration("latency", time.Since(start)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reading body")
		return nil, fmt.Errorf("reading %s %s response: %w", req.Method, path, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	slog.DebugContext(ctx, "backend call",
		slog.String("method", req.Method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", requestID),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, body)
		span.SetStatus(codes.Error, apiErr.Message)
		return nil, apiErr
	}
	return body, nil
}

// bearerToken mints a short-lived HS256 token for the current operator.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	subject := OperatorFrom(ctx)
	if subject == "" {
		subject = "mailroom"
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "mailroom",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.jwtSecret)
}
