package transport

import "github.com/gagent/wabridge/internal/media"

// InboundMessage is the canonical shape every received transport event is
// normalized into before it reaches a controller. Content is never empty on
// the wire; events with no extractable content are dropped upstream.
type InboundMessage struct {
	ID        string     `json:"id"`
	Sender    string     `json:"sender"`
	ChatID    string     `json:"chatId"`
	Content   string     `json:"content"`
	Timestamp int64      `json:"timestamp"`
	IsGroup   bool       `json:"isGroup"`
	FromMe    bool       `json:"fromMe"`
	MediaType media.Type `json:"mediaType"`
	MimeType  string     `json:"mimeType,omitempty"`
	MediaPath string     `json:"mediaPath,omitempty"`
	Caption   string     `json:"caption,omitempty"`
}
