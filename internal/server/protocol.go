package server

import "github.com/gagent/wabridge/internal/transport"

// The control plane speaks flat JSON frames, one per WebSocket message,
// discriminated by "type".

// CloseAuthFailure is the application close code used for auth timeouts and
// invalid tokens.
const CloseAuthFailure = 4003

// Command is a controller-issued frame. auth carries token; send carries the
// remaining fields.
type Command struct {
	Type      string `json:"type"`
	Token     string `json:"token,omitempty"`
	To        string `json:"to,omitempty"`
	Text      string `json:"text,omitempty"`
	MediaPath string `json:"mediaPath,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// SentReply acknowledges a successful send to the issuing connection only.
type SentReply struct {
	Type string `json:"type"`
	To   string `json:"to"`
}

// ErrorReply reports a failed send or malformed input. It never closes the
// connection.
type ErrorReply struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// MessageEvent broadcasts a normalized inbound message.
type MessageEvent struct {
	Type string `json:"type"`
	transport.InboundMessage
}

// StatusEvent broadcasts a transport connection-state change.
type StatusEvent struct {
	Type   string           `json:"type"`
	Status transport.Status `json:"status"`
}

// QREvent broadcasts a pairing code.
type QREvent struct {
	Type string `json:"type"`
	QR   string `json:"qr"`
}

func sent(to string) SentReply     { return SentReply{Type: "sent", To: to} }
func errorf(msg string) ErrorReply { return ErrorReply{Type: "error", Error: msg} }

func messageEvent(m transport.InboundMessage) MessageEvent {
	return MessageEvent{Type: "message", InboundMessage: m}
}

func statusEvent(s transport.Status) StatusEvent { return StatusEvent{Type: "status", Status: s} }

func qrEvent(code string) QREvent { return QREvent{Type: "qr", QR: code} }
