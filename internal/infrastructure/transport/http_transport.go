package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/flowcreate/backend/internal/domain/integration"
	"github.com/flowcreate/backend/internal/infrastructure/config"
)

// SecretResolver turns a credential's secret reference into the secret value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvSecretResolver resolves "env://NAME" references from environment
// variables. Any other reference is returned verbatim so tests and local
// setups can inline secrets.
type EnvSecretResolver struct{}

// Resolve implements SecretResolver
func (EnvSecretResolver) Resolve(_ context.Context, ref string) (string, error) {
	if name, ok := strings.CutPrefix(ref, "env://"); ok {
		value := os.Getenv(name)
		if value == "" {
			return "", fmt.Errorf("secret %s is not set", name)
		}
		return value, nil
	}
	return ref, nil
}

// HTTPTransport performs integration calls over HTTP.
// It implements the integration.Transport port.
type HTTPTransport struct {
	client    *http.Client
	resolver  SecretResolver
	userAgent string
}

// NewHTTPTransport creates an HTTP transport from configuration
func NewHTTPTransport(cfg *config.TransportConfig, resolver SecretResolver) *HTTPTransport {
	if resolver == nil {
		resolver = EnvSecretResolver{}
	}
	return &HTTPTransport{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    cfg.MaxIdleConns,
				MaxConnsPerHost: cfg.MaxConnsPerHost,
			},
		},
		resolver:  resolver,
		userAgent: cfg.UserAgent,
	}
}

// Send performs one call against the endpoint
func (t *HTTPTransport) Send(ctx context.Context, req integration.Request) (*integration.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body *bytes.Reader
	if req.Payload != nil {
		data, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	method := req.Endpoint.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.Endpoint.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", t.userAgent)
	if req.Payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Endpoint.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if err := t.applyAuth(ctx, httpReq, req.Auth); err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := t.client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, integration.ErrTransportTimeout
		}
		return nil, fmt.Errorf("%w: %v", integration.ErrTransportUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody := map[string]any{}
	// Non-JSON bodies are ignored; the status code still carries the outcome
	_ = json.NewDecoder(httpResp.Body).Decode(&respBody)

	return &integration.Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Duration:   duration,
	}, nil
}

// applyAuth attaches the resolved credential to the outgoing request
func (t *HTTPTransport) applyAuth(ctx context.Context, httpReq *http.Request, cred integration.Credential) error {
	if cred.SecretRef == "" {
		return nil
	}
	secret, err := t.resolver.Resolve(ctx, cred.SecretRef)
	if err != nil {
		return fmt.Errorf("failed to resolve credential: %w", err)
	}

	switch cred.Type {
	case integration.CredentialTypeAPIKey:
		httpReq.Header.Set("X-API-Key", secret)
	case integration.CredentialTypeOAuth:
		httpReq.Header.Set("Authorization", "Bearer "+secret)
	case integration.CredentialTypeBasic:
		httpReq.Header.Set("Authorization", "Basic "+secret)
	}
	return nil
}

func isClientTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Ensure HTTPTransport implements integration.Transport
var _ integration.Transport = (*HTTPTransport)(nil)
