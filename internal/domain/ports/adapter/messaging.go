package adapter

import "context"

// Messenger is the port for the outbound messaging provider. to is a full
// provider address (e.g. "whatsapp:+15551234567", "telegram:12345").
// Send returns the provider's delivery id.
type Messenger interface {
	Send(ctx context.Context, to, body string, mediaURLs []string) (string, error)
}
