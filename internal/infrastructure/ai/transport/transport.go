// Package transport holds the HTTP plumbing shared by the model providers:
// an instrumented client and status-code classification.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/rasoiops/rasoiops/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxErrorBody bounds how much of an error response is kept for logs
const maxErrorBody = 512

// Config is the connection configuration common to every provider
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewHTTPClient returns a client whose transport emits OpenTelemetry spans
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// StatusError is a non-2xx answer from a provider
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Service, e.Code, e.Body)
}

// StatusCode returns the upstream HTTP status
func (e *StatusError) StatusCode() int {
	return e.Code
}

// Classify turns a non-2xx status into an application error. HTTP 429 becomes
// a rate-limit error so the retry wrapper can recognise it.
func Classify(service string, code int, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	cause := &StatusError{Service: service, Code: code, Body: string(bytes.TrimSpace(body))}

	if code == http.StatusTooManyRequests {
		return apperrors.NewRateLimitedError(service, cause)
	}
	return apperrors.NewExternalServiceError(service, cause).WithMetadata("status_code", code)
}

// PostJSON sends in as a JSON body and decodes a 2xx response into out
func PostJSON(ctx context.Context, client *http.Client, service, url string, headers map[string]string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return do(client, service, req, out)
}

// Get issues a GET and decodes a 2xx response into out when out is non-nil
func Get(ctx context.Context, client *http.Client, service, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return do(client, service, req, out)
}

func do(client *http.Client, service string, req *http.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.NewExternalServiceError(service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewExternalServiceError(service, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Classify(service, resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewExternalServiceError(service, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}
