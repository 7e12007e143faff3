package etfcom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"ETFScraper/internal/domain/models"
	drepo "ETFScraper/internal/domain/repository"
	xhttp "ETFScraper/pkg/http"
	applogger "ETFScraper/pkg/logger"
	"ETFScraper/pkg/util"
)

const (
	DefaultURL       = "https://api-prod.etf.com/v2/fund/fund-details"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	bodyLogLimit = 500
)

// Client implements FundDetailsSource against the etf.com fund-details API.
type Client struct {
	url       string
	userAgent string
	http      *xhttp.Client
	metrics   drepo.Metrics
	log       *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithURL overrides the endpoint.
func WithURL(u string) Option {
	return func(c *Client) { c.url = u }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithHTTPClient sets the HTTP client. It should carry the per-attempt
// timeout and the browser transport.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records every attempt.
func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		url:       DefaultURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient()
	}
	if c.log == nil {
		c.log = applogger.Nop()
	}
	c.log = c.log.Component("etfcom")
	return c
}

var _ drepo.FundDetailsSource = (*Client)(nil)

// Fetch posts the allHoldings query and falls back to topHoldings. The first
// 2xx response is decoded and returned. Errors are *models.FetchError.
func (c *Client) Fetch(ctx context.Context, ticker string) (models.RawDocument, error) {
	var lastErr error

	for _, query := range queries {
		c.log.Info("trying query", applogger.String("query", query), applogger.String("ticker", strings.ToUpper(ticker)))

		body, err := c.http.Send(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    c.url,
			Headers: map[string]string{
				"Content-Type": "application/json",
				"Accept":       "application/json",
				"User-Agent":   c.userAgent,
			},
			Body: newPayload(query, ticker),
		})
		if err == nil {
			c.recordAttempt(query, "ok")
			return c.decode(body)
		}

		if errors.Is(err, xhttp.ErrBuildRequest) {
			c.recordAttempt(query, "error")
			c.log.Error("unexpected upstream error", applogger.String("query", query), applogger.Error(err))
			return models.RawDocument{}, &models.FetchError{Kind: classifyUnexpected(err), Err: err}
		}

		lastErr = err
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.IsClientError() {
			c.recordAttempt(query, "client_error")
			c.log.Info("query rejected, falling back",
				applogger.String("query", query),
				applogger.Int("status", se.StatusCode),
			)
			continue
		}

		c.recordAttempt(query, "error")
		fields := []applogger.Field{applogger.String("query", query), applogger.Error(err)}
		if se != nil {
			fields = append(fields,
				applogger.Int("status", se.StatusCode),
				applogger.String("body", util.Truncate(string(se.Body), bodyLogLimit)),
			)
		}
		c.log.Warn("upstream request failed", fields...)
	}

	kind := classifyAttempt(lastErr)
	c.log.Warn("all queries failed", applogger.String("kind", string(kind)))
	return models.RawDocument{}, &models.FetchError{Kind: kind, Err: lastErr}
}

// decode parses body as a single JSON value, keeping numbers as json.Number.
func (c *Client) decode(body []byte) (models.RawDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	err := dec.Decode(&v)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.New("trailing data after JSON value")
		}
	}
	if err != nil {
		c.log.Warn("failed to parse JSON response",
			applogger.Error(err),
			applogger.String("body", util.Truncate(string(body), bodyLogLimit)),
		)
		return models.RawDocument{}, &models.FetchError{
			Kind: models.ErrorKindParse,
			Err:  fmt.Errorf("decode response: %w", err),
		}
	}
	return models.RawDocument{Value: v, Raw: body}, nil
}

func (c *Client) recordAttempt(query, outcome string) {
	if c.metrics != nil {
		c.metrics.RecordUpstreamAttempt(query, outcome)
	}
}

// classifyAttempt maps the last failed attempt to an error kind.
func classifyAttempt(err error) models.ErrorKind {
	if err == nil {
		return models.ErrorKindRequestFailed
	}
	if isTimeout(err) {
		return models.ErrorKindTimeout
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusBadGateway || se.StatusCode == http.StatusGatewayTimeout) {
		return models.ErrorKindGateway
	}
	return models.ErrorKindRequestFailed
}

// classifyUnexpected maps errors raised outside an attempt by message.
func classifyUnexpected(err error) models.ErrorKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return models.ErrorKindTimeout
	case strings.Contains(msg, "502"), strings.Contains(msg, "504"), strings.Contains(msg, "gateway"):
		return models.ErrorKindGateway
	default:
		return models.ErrorKindTransport
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out")
}
