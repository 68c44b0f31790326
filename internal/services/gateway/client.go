// Package gateway is the signed-request client for the external payment
// gateway. Outbound requests are signed over the exact bytes sent; inbound
// callbacks are verified over the exact bytes received.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "paybaba/internal/errors"
	"paybaba/internal/services/signing"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

type Client struct {
	config  Config
	signer  *signing.Signer
	http    HTTPDoer
	metrics Metrics
	now     func() time.Time
	newID   func(time.Time) string
	log     *logrus.Entry
}

type Option func(*Client)

// WithHTTPDoer replaces the default fasthttp client.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *Client) { c.http = doer }
}

func WithMetrics(m Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock fixes the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithIDGenerator replaces the request id / trade number generator.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(c *Client) { c.newID = gen }
}

// NewClient fails fast when the partner id is missing. Missing keys are
// reported by the first operation that needs them.
func NewClient(config Config, signer *signing.Signer, opts ...Option) (*Client, error) {
	if strings.TrimSpace(config.PartnerID) == "" {
		return nil, ErrMissingPartnerID
	}
	if signer == nil {
		return nil, fmt.Errorf("%w: signer is required", apperrors.ErrConfiguration)
	}
	if config.Location == nil {
		config.Location = LoadLocation(DefaultTimezone)
	}

	c := &Client{
		config:  config,
		signer:  signer,
		http:    &fasthttp.Client{Name: "paybaba-gateway"},
		metrics: NoopMetrics{},
		now:     time.Now,
		log:     logrus.WithField("component", "gateway"),
	}
	c.newID = func(t time.Time) string { return GenerateRequestID(t, c.config.Location) }
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Config() Config { return c.config }

// Path joins the versioned API prefix with an operation, e.g.
// Path("qris/create") == "/payment/v2.1/qris/create".
func (c *Client) Path(operation string) string {
	return "/payment/" + c.config.version() + "/" + strings.TrimPrefix(operation, "/")
}

// SendRequest signs and POSTs body to path. The partner id, request id and
// trade number are injected ahead of the caller's fields; body keys with those
// names are ignored. opts may pin the request id and trade number.
//
// There is no retry: a signed request carries a time-bound signature and the
// gateway does not document replay safety. Transport failures are returned
// wrapped in errors.ErrTransport.
func (c *Client) SendRequest(ctx context.Context, path string, body map[string]interface{}, opts RequestOptions) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTransport, err)
	}
	if !c.signer.CanSign() {
		return nil, signing.ErrNoPrivateKey
	}

	now := c.now()
	requestID := opts.RequestID
	if requestID == "" {
		requestID = c.newID(now)
	}
	tradeNo := opts.MerchantTradeNo
	if tradeNo == "" {
		tradeNo = c.newID(now)
	}
	timestamp := opts.Timestamp
	if timestamp == "" {
		timestamp = FormatTimestamp(now, c.config.Location)
	}

	payload, dropped, err := encodePayload([]field{
		{key: "merchantId", value: c.config.PartnerID},
		{key: "requestId", value: requestID},
		{key: "merchantTradeNo", value: tradeNo},
	}, body)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		c.log.WithField("fields", dropped).Warn("ignoring caller fields that shadow identity fields")
	}

	path = signing.NormalizePath(path)
	headers, err := c.signedHeaders(http.MethodPost, path, payload, timestamp, requestID)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(c.config.ResolvedBaseURL(), "/") + path)
	req.Header.SetMethod(http.MethodPost)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.SetBody(payload)

	start := time.Now()
	if err := c.do(ctx, req, resp); err != nil {
		c.metrics.ObserveGatewayRequest(path, "transport_error", time.Since(start))
		c.log.WithFields(logrus.Fields{
			"path":       path,
			"request_id": requestID,
		}).WithError(err).Error("gateway request failed")
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrTransport, path, err)
	}

	out := &Response{
		StatusCode:      resp.StatusCode(),
		RequestID:       requestID,
		MerchantTradeNo: tradeNo,
	}
	raw := resp.Body()
	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed != nil {
		out.Parsed = true
		out.Body = parsed
	} else {
		out.Raw = string(raw)
	}

	outcome := "ok"
	if out.StatusCode >= 400 {
		outcome = "http_error"
	}
	c.metrics.ObserveGatewayRequest(path, outcome, time.Since(start))
	c.log.WithFields(logrus.Fields{
		"path":       path,
		"request_id": requestID,
		"status":     out.StatusCode,
		"parsed":     out.Parsed,
	}).Debug("gateway request completed")

	return out, nil
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.http.DoDeadline(req, resp, deadline)
	}
	if c.config.Timeout > 0 {
		return c.http.DoDeadline(req, resp, time.Now().Add(c.config.Timeout))
	}
	return c.http.Do(req, resp)
}

func (c *Client) signedHeaders(method, path string, body []byte, timestamp, requestID string) (map[string]string, error) {
	canonical := signing.Canonicalize(method, path, body, timestamp)
	signature, err := c.signer.Sign(canonical)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		HeaderContentType: ContentTypeJSON,
		HeaderTimestamp:   timestamp,
		HeaderSignature:   signature,
		HeaderPartnerID:   c.config.PartnerID,
		HeaderRequestID:   requestID,
	}, nil
}
