package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/internal/infra/buildinfo"
	"github.com/gophercraft/gcportal-go/internal/telemetry/logger"
	"github.com/gophercraft/gcportal-go/internal/telemetry/metric"
	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
)

// APIPrefix is the path every endpoint lives under.
const APIPrefix = "/api/v1/"

// Header names.
const (
	HeaderCredential = "X-GC-Credential"
	HeaderRequestID  = "X-Request-ID"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 8 << 20

// CredentialLoader returns the stored token, or "" when none is stored.
// It is called before every request.
type CredentialLoader func(ctx context.Context) string

// HTTPClient provides HTTP communication with the portal server.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	credential CredentialLoader
	limiter    *rate.Limiter
	timeout    time.Duration
	userAgent  string
	logger     logger.Logger
	metrics    *metric.Registry
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithCredentialLoader sets the source of the X-GC-Credential header.
func WithCredentialLoader(fn CredentialLoader) Option {
	return func(c *HTTPClient) { c.credential = fn }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records every request in r.
func WithMetrics(r *metric.Registry) Option {
	return func(c *HTTPClient) { c.metrics = r }
}

// WithRateLimiter throttles outgoing requests. A nil limiter disables
// throttling.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *HTTPClient) { c.limiter = l }
}

// WithTimeout bounds each request, rate limiter wait included. Every
// call gets its own deadline, so time the caller spends between calls
// does not count. Zero leaves requests bounded only by ctx.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) { c.userAgent = ua }
}

// NewHTTPClient creates a client for the portal at server.
func NewHTTPClient(server string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:   NormalizeServer(server),
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: buildinfo.UserAgent(),
		logger:    logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeServer adds a scheme when missing and strips trailing slashes.
func NormalizeServer(server string) string {
	server = strings.TrimSpace(server)
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	return strings.TrimRight(server, "/")
}

// BaseURL returns the server URL without the API prefix.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// URL returns the full URL of an API endpoint.
func (c *HTTPClient) URL(path string) string {
	return c.baseURL + APIPrefix + strings.TrimLeft(path, "/")
}

// Do sends a JSON request and decodes the JSON response into out.
//
// body and out may be nil. Failures are *domain.PortalError values:
// an error_message in a JSON body wins over the HTTP status, then a
// non-200 status, then a non-JSON content type.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out any) error {
	return c.roundTrip(ctx, method, path, body, func(resp *http.Response, data []byte) error {
		isJSON := isJSONContent(resp.Header.Get("Content-Type"))

		if isJSON {
			if msg := extractErrorMessage(data); msg != "" {
				return domain.ApplicationError(msg)
			}
		}
		if resp.StatusCode != http.StatusOK {
			return domain.TransportError(statusText(resp), resp.StatusCode)
		}
		if !isJSON {
			return domain.TransportError(statusText(resp), resp.StatusCode).
				WithDetails("unexpected content type " + strconv.Quote(resp.Header.Get("Content-Type")))
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return domain.DecodeError(err)
			}
		}
		return nil
	})
}

// Fetch performs a GET and returns the raw body and its content type.
// It is used for non-JSON resources such as CAPTCHA images.
func (c *HTTPClient) Fetch(ctx context.Context, path string) ([]byte, string, error) {
	var (
		body        []byte
		contentType string
	)
	err := c.roundTrip(ctx, http.MethodGet, path, nil, func(resp *http.Response, data []byte) error {
		contentType = resp.Header.Get("Content-Type")
		if isJSONContent(contentType) {
			if msg := extractErrorMessage(data); msg != "" {
				return domain.ApplicationError(msg)
			}
		}
		if resp.StatusCode != http.StatusOK {
			return domain.TransportError(statusText(resp), resp.StatusCode)
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// roundTrip sends the request, reads the whole response body and hands it
// to interpret. The request is recorded in metrics under the outcome of
// the returned error.
func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, body any, interpret func(*http.Response, []byte) error) (err error) {
	endpoint := endpointLabel(path)
	requestID := ulid.Make().String()
	ctx = logger.WithRequestID(ctx, requestID)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	log := logger.Enrich(c.logger, ctx).With("method", method, "endpoint", endpoint)
	start := time.Now()

	defer func() {
		c.metrics.ObserveRequest(endpoint, method, outcomeOf(err), time.Since(start))
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.NetworkError(err)
		}
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(ctx, req)
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug("sending request")
	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug("request failed", "error", err)
		return domain.NetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return domain.NetworkError(err)
	}

	log.Debug("response received",
		"status", resp.StatusCode,
		"bytes", len(data),
		"elapsed", time.Since(start))

	return interpret(resp, data)
}

// addHeaders adds the credential and common headers.
func (c *HTTPClient) addHeaders(ctx context.Context, req *http.Request) {
	if c.credential != nil {
		if token := c.credential(ctx); token != "" {
			req.Header.Set(HeaderCredential, token)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// outcomeOf maps a request error to its metrics outcome.
func outcomeOf(err error) string {
	if err == nil {
		return metric.OutcomeOK
	}
	switch domain.KindOf(err) {
	case domain.KindApplication:
		return metric.OutcomeApplication
	case domain.KindTransport:
		return metric.OutcomeTransport
	case domain.KindDecode:
		return metric.OutcomeDecode
	default:
		return metric.OutcomeNetwork
	}
}

func isJSONContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// extractErrorMessage returns the error_message field of a JSON object
// body, or "" when the body is not an object or has no message.
func extractErrorMessage(data []byte) string {
	var envelope struct {
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	return envelope.ErrorMessage
}

// statusText returns the reason phrase the server sent, falling back to
// the canonical text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// endpointLabel collapses numeric path segments so game account ids do not
// explode metric cardinality.
func endpointLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
