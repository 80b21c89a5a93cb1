package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/TobiSchelling/newsdesk/internal/metrics"
	"github.com/TobiSchelling/newsdesk/internal/news"
)

const maxBodySize = 8 << 20

// get issues one GET and returns the body of a 2xx response.
func get(ctx context.Context, client *http.Client, provider, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", provider, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", "newsdesk/1.0")

	start := time.Now()
	resp, err := client.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(provider, "transport_error").Inc()
		return nil, &news.TransportError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(provider, "transport_error").Inc()
		return nil, &news.TransportError{Provider: provider, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ProviderRequestsTotal.WithLabelValues(provider, strconv.Itoa(resp.StatusCode)).Inc()
		return nil, &news.HTTPError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	metrics.ProviderRequestsTotal.WithLabelValues(provider, "ok").Inc()
	return body, nil
}

// getJSON issues one GET and decodes a 2xx JSON response into out.
func getJSON(ctx context.Context, client *http.Client, provider, rawURL string, header http.Header, out any) error {
	body, err := get(ctx, client, provider, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &news.DecodeError{Provider: provider, Err: err}
	}
	return nil
}

// errorMessage extracts a human-readable message from an error payload.
// NewsAPI and OpenWeather put it at the top level, the Guardian under
// "response" and NewsData under "results".
func errorMessage(body []byte) string {
	var payload struct {
		Message  string `json:"message"`
		Response struct {
			Message string `json:"message"`
		} `json:"response"`
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if payload.Response.Message != "" {
		return payload.Response.Message
	}
	var nested struct {
		Message string `json:"message"`
	}
	if len(payload.Results) > 0 && json.Unmarshal(payload.Results, &nested) == nil {
		return nested.Message
	}
	return ""
}

// IsRetryable reports whether err is worth retrying later: transport failures,
// rate limiting and server errors.
func IsRetryable(err error) bool {
	var te *news.TransportError
	if errors.As(err, &te) {
		return true
	}
	var he *news.HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	return false
}
