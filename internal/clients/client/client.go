package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/rs/zerolog/log"
)

// maxErrorBodySize bounds how much of a failed response is kept in HttpError
const maxErrorBodySize = 4096

type BaseClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

type HttpClientOptions struct {
	// Timeout overrides the client default when positive
	Timeout time.Duration
	Path    string
	// TemplatePath is the path used as metrics label, without ids or query
	TemplatePath string
	Headers      map[string]string
}

// HttpError is returned when the remote answered with a non 2xx status
type HttpError struct {
	StatusCode int
	Body       string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether err is a response the remote produced without
// accepting the request: rate limiting or unavailability. Other 5xx may come from
// a proxy after the request was accepted and are never retried.
func IsRetryable(err error) bool {
	var httpErr *HttpError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode == http.StatusServiceUnavailable
}

// SendRequest sends input as JSON body (when not nil) and decodes the JSON response into R
func SendRequest[I any, R any](
	ctx context.Context, client BaseClient, method string, opts *HttpClientOptions, input *I,
) (*R, error) {
	timeout := client.GetDefaultRequestTimeout()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	url := client.GetBaseURL() + opts.Path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if input != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	templatePath := opts.TemplatePath
	if templatePath == "" {
		templatePath = opts.Path
	}
	recordDuration := metrics.StartClientRequestDurationTimer(client.GetBaseURL(), method, templatePath)

	resp, err := client.GetHttpClient().Do(req)
	if err != nil {
		recordDuration(0)
		return nil, fmt.Errorf("failed to send request to %s: %w", templatePath, err)
	}
	defer resp.Body.Close()
	recordDuration(resp.StatusCode)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		log.Ctx(ctx).Debug().
			Int("status_code", resp.StatusCode).
			Str("path", templatePath).
			Msg("unexpected response status")
		return nil, &HttpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var result R
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", templatePath, err)
	}
	return &result, nil
}
