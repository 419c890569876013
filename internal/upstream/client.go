// Package upstream is the client of the platform's JSON API consumed by the console.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"
	"strings"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

const maxResponseBytes = 8 << 20

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls named endpoints of the upstream API. Every call is a POST whose body is
// JSON or multipart and whose response is an Envelope plus payload.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *observability.UpstreamLogger
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
		log:        observability.NewUpstreamLogger(),
	}
}

type tokenKey struct{}

// WithToken attaches the upstream bearer token of the acting admin to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token attached by WithToken.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// File is one multipart attachment.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// Post sends body as JSON to endpoint and decodes the payload into out.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}
	return c.do(ctx, endpoint, "application/json", payload, out)
}

// PostMultipart sends fields and files as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, endpoint string, fields map[string]string, files []File, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if err := w.WriteField(name, fields[name]); err != nil {
			return fmt.Errorf("encode %s field %s: %w", endpoint, name, err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return fmt.Errorf("encode %s file %s: %w", endpoint, f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return fmt.Errorf("encode %s file %s: %w", endpoint, f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("encode %s multipart: %w", endpoint, err)
	}

	return c.do(ctx, endpoint, w.FormDataContentType(), buf.Bytes(), out)
}

func (c *Client) do(ctx context.Context, endpoint, contentType string, body []byte, out any) (err error) {
	span, ctx := observability.StartUpstreamSpan(ctx, endpoint)
	defer span.End()
	defer observability.TrackUpstream(endpoint)()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if err == nil {
			return
		}
		span.SetError(err)
		kind := "unavailable"
		if _, ok := IsRejected(err); ok {
			kind = "rejected"
		}
		observability.UpstreamFailures.WithLabelValues(endpoint, kind).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return &UnavailableError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rid := observability.ExtractCorrelationID(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.LogError(ctx, endpoint, err, time.Since(start))
		return &UnavailableError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.log.LogError(ctx, endpoint, err, time.Since(start))
		return &UnavailableError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	span.AddAttributes(attribute.Int("http.status_code", resp.StatusCode))

	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.LogError(ctx, endpoint, err, time.Since(start))
		if resp.StatusCode >= http.StatusBadRequest {
			err = errors.New(http.StatusText(resp.StatusCode))
		}
		return &UnavailableError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}

	c.log.LogCall(ctx, endpoint, resp.StatusCode, env.Success.Bool(), time.Since(start))

	if !env.Success.Bool() {
		if env.Message == "" && resp.StatusCode >= http.StatusBadRequest {
			return &UnavailableError{Endpoint: endpoint, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
		}
		return &RejectedError{Endpoint: endpoint, Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &UnavailableError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode payload: %w", err)}
		}
	}
	return nil
}
