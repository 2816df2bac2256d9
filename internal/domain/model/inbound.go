package model

// InboundMessage is one message delivered by a channel adapter. It is
// consumed once by the command router and never stored.
type InboundMessage struct {
	Body      string
	From      string // sender contact in registry key format
	MediaURLs []string
	Channel   string // twilio | telegram
}
