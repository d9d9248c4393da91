// Package proxy forwards chat-completion requests to an upstream API while
// keeping the API key on the server.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/errors"
)

const (
	// DefaultReferer is sent as HTTP-Referer when the caller sent none.
	DefaultReferer = "http://localhost"

	maxUpstreamBody = 10 << 20
)

// Config holds proxy configuration
type Config struct {
	// ListenAddr is the address to listen on (e.g., "0.0.0.0:5000")
	ListenAddr string

	// UpstreamURL is the chat-completions endpoint
	UpstreamURL string

	// APIKey is sent upstream as a bearer token. Empty means unconfigured:
	// chat requests fail with ServerMisconfigured.
	APIKey config.Secret

	// AppTitle is sent as X-Title when set
	AppTitle string

	DefaultModel       string
	DefaultTemperature float64
	DefaultMaxTokens   int

	// Timeout bounds each upstream call
	Timeout time.Duration

	// AuditLogPath is the path to write request audit logs (empty = no logging)
	AuditLogPath string

	// Logger for proxy operations
	Logger *slog.Logger

	// Transport is an optional HTTP transport for upstream calls.
	// Used in tests to supply a TLS-aware transport for test servers.
	Transport http.RoundTripper
}

// ConfigFrom maps the proxy section of the gido configuration.
func ConfigFrom(c config.ProxyConfig) *Config {
	return &Config{
		ListenAddr:         c.ListenAddr(),
		UpstreamURL:        c.UpstreamURL,
		APIKey:             c.APIKey,
		AppTitle:           c.AppTitle,
		DefaultModel:       c.DefaultModel,
		DefaultTemperature: c.DefaultTemperature,
		DefaultMaxTokens:   c.DefaultMaxTokens,
		Timeout:            c.Timeout,
		AuditLogPath:       c.AuditLog,
	}
}

// ChatRequest is the body accepted by POST /api/chat. Messages is kept
// raw and forwarded exactly as the caller sent it, so tool calls,
// multi-part content and provider-specific keys pass through.
type ChatRequest struct {
	Messages    json.RawMessage `json:"messages"`
	Model       *string         `json:"model,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

// upstreamRequest is the body sent to the upstream API.
type upstreamRequest struct {
	Model       string          `json:"model"`
	Messages    json.RawMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

// Result is a successful upstream response.
type Result struct {
	// Body is the upstream JSON body, byte for byte.
	Body []byte

	// Model is the model that was requested upstream.
	Model string
}

// Proxy submits chat requests upstream with the server-held key.
type Proxy struct {
	config   *Config
	target   *url.URL
	client   *http.Client
	auditLog *auditLogger
	handler  http.Handler

	// maxBody bounds how much of an upstream response is buffered.
	maxBody int64
}

// New creates a new proxy instance
func New(cfg *Config) (*Proxy, error) {
	target, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}

	// Validate the target URL scheme to prevent plaintext key transmission
	if target.Scheme != "https" {
		return nil, fmt.Errorf("upstream must use HTTPS (got %q) to protect the API key in transit", target.Scheme)
	}

	// Reject targets that could be used for SSRF against internal services.
	// Skip this check when a custom Transport is provided (used in tests
	// with httptest.NewTLSServer which binds to 127.0.0.1).
	targetHost := target.Hostname()
	if cfg.Transport == nil && isInternalHost(targetHost) {
		return nil, fmt.Errorf("upstream must not point to internal/link-local addresses: %s", targetHost)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultUpstreamTimeout
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = config.DefaultModel
	}
	if cfg.DefaultMaxTokens <= 0 {
		cfg.DefaultMaxTokens = config.DefaultMaxTokens
	}

	p := &Proxy{
		config:  cfg,
		target:  target,
		client:  &http.Client{Timeout: cfg.Timeout},
		maxBody: maxUpstreamBody,
	}
	if cfg.Transport != nil {
		p.client.Transport = cfg.Transport
	}

	if cfg.AuditLogPath != "" {
		al, err := newAuditLogger(cfg.AuditLogPath, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit logger: %w", err)
		}
		p.auditLog = al
	}

	p.handler = p.routes()

	return p, nil
}

// Configured reports whether an API key is available.
func (p *Proxy) Configured() bool {
	return p.config.APIKey.IsSet()
}

// SubmitChat validates body, forwards it upstream with the server key and
// returns the upstream body unmodified. referer is forwarded as
// HTTP-Referer, falling back to DefaultReferer.
func (p *Proxy) SubmitChat(ctx context.Context, body []byte, referer string) (*Result, error) {
	req, err := parseChatRequest(body)
	if err != nil {
		return nil, err
	}

	if !p.Configured() {
		return nil, errors.ServerMisconfigured("Server not configured")
	}

	up := upstreamRequest{
		Model:       p.config.DefaultModel,
		Messages:    req.Messages,
		Temperature: p.config.DefaultTemperature,
		MaxTokens:   p.config.DefaultMaxTokens,
	}
	if req.Model != nil {
		up.Model = *req.Model
	}
	if req.Temperature != nil {
		up.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		up.MaxTokens = *req.MaxTokens
	}

	payload, err := json.Marshal(up)
	if err != nil {
		return nil, errors.InternalError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.target.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, errors.InternalError(err)
	}
	if referer == "" {
		referer = DefaultReferer
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey.Reveal())
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", referer)
	if p.config.AppTitle != "" {
		httpReq.Header.Set("X-Title", p.config.AppTitle)
	}

	p.config.Logger.Debug("forwarding chat request", "model", up.Model, "messages", countMessages(up.Messages))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, errors.InternalError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody+1))
	if err != nil {
		return nil, errors.InternalError(fmt.Errorf("failed to read upstream response: %w", err))
	}
	truncated := int64(len(respBody)) > p.maxBody
	if truncated {
		respBody = respBody[:p.maxBody]
	}

	if resp.StatusCode != http.StatusOK {
		if truncated {
			p.config.Logger.Warn("upstream error body truncated", "status", resp.StatusCode, "limit", p.maxBody)
		}
		p.config.Logger.Warn("upstream error", "status", resp.StatusCode, "model", up.Model)
		return nil, errors.UpstreamError(resp.StatusCode, string(respBody))
	}

	if truncated {
		return nil, errors.InternalError(fmt.Errorf("upstream response exceeds %d bytes", p.maxBody))
	}

	if !json.Valid(respBody) {
		return nil, errors.InternalError(fmt.Errorf("upstream returned invalid JSON"))
	}

	return &Result{Body: respBody, Model: up.Model}, nil
}

// parseChatRequest checks for "messages" on the raw object before decoding
// the typed request.
func parseChatRequest(body []byte) (*ChatRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.InvalidRequest("Invalid request")
	}

	msgs, ok := raw["messages"]
	if !ok {
		return nil, errors.InvalidRequest("Invalid request")
	}
	if trimmed := bytes.TrimSpace(msgs); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.InvalidRequest("Invalid request")
	}

	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.InvalidRequest("Invalid request")
	}
	return &req, nil
}

// countMessages returns the number of elements in a raw messages array.
func countMessages(msgs json.RawMessage) int {
	var elems []json.RawMessage
	if err := json.Unmarshal(msgs, &elems); err != nil {
		return 0
	}
	return len(elems)
}

// isInternalHost returns true if the host resolves to a loopback, link-local,
// or private address that could be used for SSRF attacks.
func isInternalHost(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		// Try resolving hostname
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return false
		}
		ip = ips[0]
	}
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// Close closes the proxy and releases resources
func (p *Proxy) Close() error {
	if p.auditLog != nil {
		return p.auditLog.close()
	}
	return nil
}
