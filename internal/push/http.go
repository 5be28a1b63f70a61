package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/minhvu/pushrelay/internal/metrics"
)

// HTTPTransport delivers push messages over the provider's HTTP send API.
type HTTPTransport struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPTransport uses DI to inject the HTTP client so tests can point it
// at a local server.
func NewHTTPTransport(endpoint, apiKey string, client *http.Client, logger *slog.Logger) *HTTPTransport {
	return &HTTPTransport{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
		logger:   logger.With("component", "pushTransport"),
	}
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// Send posts the message to the provider and returns its message id. Any
// non-2xx response becomes an error carrying the provider's description.
func (t *HTTPTransport) Send(ctx context.Context, msg Message) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	start := time.Now()
	resp, err := t.client.Do(req)
	duration := time.Since(start).Seconds()
	if err != nil {
		metrics.PushSendDuration.WithLabelValues("error").Observe(duration)
		return "", fmt.Errorf("push send failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		metrics.PushSendDuration.WithLabelValues("error").Observe(duration)
		return "", fmt.Errorf("failed to read push response: %w", err)
	}

	var decoded sendResponse
	if err := json.Unmarshal(body, &decoded); err != nil && resp.StatusCode < http.StatusBadRequest {
		metrics.PushSendDuration.WithLabelValues("error").Observe(duration)
		return "", fmt.Errorf("failed to decode push response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.PushSendDuration.WithLabelValues("rejected").Observe(duration)
		if decoded.Error != "" {
			return "", fmt.Errorf("push rejected: %s", decoded.Error)
		}
		return "", fmt.Errorf("push rejected: status %d", resp.StatusCode)
	}

	metrics.PushSendDuration.WithLabelValues("ok").Observe(duration)
	t.logger.Debug("Push delivered", slog.String("message_id", decoded.MessageID))
	return decoded.MessageID, nil
}
