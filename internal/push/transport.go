package push

import "context"

// Message is one push payload addressed to a device token.
type Message struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Transport is the outbound push delivery port. Send makes exactly one
// delivery attempt and returns the provider-assigned message id.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
}
