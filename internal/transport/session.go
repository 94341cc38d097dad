package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gagent/wabridge/internal/echo"
	"github.com/gagent/wabridge/internal/media"
)

// ReconnectDelay is the fixed backoff before the single reconnect attempt
// scheduled after an unexpected connection loss.
const ReconnectDelay = 5 * time.Second

// statusBroadcast is the transport's status/story channel; events from it are
// never forwarded to controllers.
const statusBroadcast = "status@broadcast"

// ErrNotConnected is returned by SendMessage when no transport connection is
// currently established.
var ErrNotConnected = errors.New("transport not connected")

// SendOptions carries the optional fields of an outbound send.
type SendOptions struct {
	MediaPath string
	MediaType media.Type
	MimeType  string
	Caption   string
}

// SessionEvents receives the session's normalized output. Status delivers
// only connected/disconnected; pairing codes arrive through QR.
type SessionEvents struct {
	Message func(InboundMessage)
	Status  func(Status)
	QR      func(code string)
}

// Session owns exactly one logical connection to the chat transport. It
// normalizes raw events, suppresses echoes of its own sends, downloads
// inbound media into the cache directory, and handles reconnection.
type Session struct {
	tr       Transport
	sup      *echo.Suppressor
	credDir  string
	mediaDir string
	events   SessionEvents

	mu        sync.Mutex
	status    Status
	closed    bool
	pending   bool // a reconnect timer is armed
	reconnect *time.Timer
}

func NewSession(tr Transport, credDir, mediaDir string, events SessionEvents) *Session {
	return &Session{
		tr:       tr,
		sup:      echo.NewSuppressor(),
		credDir:  credDir,
		mediaDir: mediaDir,
		events:   events,
		status:   StatusDisconnected,
	}
}

// Status returns the current connection state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Connect starts a background connection attempt. Establishment failures are
// reported through the status event stream, never as an error here.
func (s *Session) Connect(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelReconnectLocked()
	s.status = StatusConnecting
	s.mu.Unlock()

	s.tr.Bind(Handlers{
		OnMessage: s.handleRaw,
		OnStatus:  s.handleStatus,
		OnQR:      s.handleQR,
	})

	if err := s.tr.Connect(ctx, s.credDir); err != nil {
		slog.Warn("transport connect failed", "error", err)
		s.handleStatus(StatusEvent{Status: StatusDisconnected})
	}
}

// Disconnect tears down the transport connection and cancels any pending
// reconnect timer. Idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelReconnectLocked()
	s.status = StatusDisconnected
	s.mu.Unlock()

	if err := s.tr.Disconnect(); err != nil {
		slog.Warn("transport disconnect failed", "error", err)
	}
}

// SendMessage resolves the outbound media kind, builds the per-type payload,
// delegates to the transport, and records the send for echo suppression.
func (s *Session) SendMessage(ctx context.Context, to, text string, opts SendOptions) error {
	s.mu.Lock()
	connected := s.status == StatusConnected
	s.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}

	p := Payload{Text: text}
	if opts.MediaPath != "" {
		p.Kind = media.ResolveOutboundType(opts.MediaPath, opts.MediaType)
		p.Path = opts.MediaPath
		p.FileName = filepath.Base(opts.MediaPath)
		p.MimeType = opts.MimeType
		if p.MimeType == "" {
			p.MimeType = media.DetectMime(opts.MediaPath)
		}
		if opts.Caption != "" {
			p.Text = opts.Caption
		}
		p.PTT = p.Kind == media.TypeVoice
	}

	id, err := s.tr.Send(ctx, to, p)
	if err != nil {
		return fmt.Errorf("transport send: %w", err)
	}
	s.sup.Record(to, text, id)
	return nil
}

func (s *Session) handleStatus(ev StatusEvent) {
	switch ev.Status {
	case StatusConnected:
		s.mu.Lock()
		s.cancelReconnectLocked()
		s.status = StatusConnected
		s.mu.Unlock()
		slog.Info("transport connected")
		s.emitStatus(StatusConnected)

	case StatusConnecting, StatusQRPending:
		s.mu.Lock()
		s.status = ev.Status
		s.mu.Unlock()

	case StatusDisconnected:
		s.mu.Lock()
		wasClosed := s.closed
		s.status = StatusDisconnected
		s.mu.Unlock()
		slog.Info("transport disconnected", "loggedOut", ev.LoggedOut)
		s.emitStatus(StatusDisconnected)
		if !ev.LoggedOut && !wasClosed {
			s.scheduleReconnect()
		}
	}
}

func (s *Session) handleQR(code string) {
	s.mu.Lock()
	s.status = StatusQRPending
	s.mu.Unlock()
	slog.Info("pairing code received, scan to connect")
	if s.events.QR != nil {
		s.events.QR(code)
	}
}

func (s *Session) emitStatus(status Status) {
	if s.events.Status != nil {
		s.events.Status(status)
	}
}

// scheduleReconnect arms the single reconnect timer. A timer already pending
// wins; a second unexpected disconnect never stacks a second attempt.
func (s *Session) scheduleReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending || s.closed {
		return
	}
	s.pending = true
	s.reconnect = time.AfterFunc(ReconnectDelay, func() {
		s.mu.Lock()
		s.pending = false
		s.reconnect = nil
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		slog.Info("reconnecting transport")
		s.Connect(context.Background())
	})
}

func (s *Session) cancelReconnectLocked() {
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	s.pending = false
}

// handleRaw normalizes one raw transport event and forwards it to the
// controller, unless it has no extractable content or is an echo of a message
// this session just sent.
func (s *Session) handleRaw(raw *RawMessage) {
	if raw == nil || raw.Chat == statusBroadcast {
		return
	}

	msg, attachment := normalize(raw)
	if msg.Content == "" {
		return
	}
	if msg.FromMe && s.sup.IsEcho(msg.ID, msg.ChatID, msg.Content, time.Now()) {
		return
	}

	if attachment != nil {
		if path := s.download(attachment, msg.ID, msg.MediaType, msg.MimeType); path != "" {
			msg.MediaPath = path
		}
	}

	if s.events.Message != nil {
		s.events.Message(msg)
	}
}

// normalize extracts canonical fields from a raw event. The second return is
// the attachment to download, nil for plain text.
func normalize(raw *RawMessage) (InboundMessage, *RawMedia) {
	msg := InboundMessage{
		ID:        raw.ID,
		Sender:    raw.Sender,
		ChatID:    raw.Chat,
		Timestamp: raw.Timestamp,
		IsGroup:   raw.IsGroup,
		FromMe:    raw.FromMe,
	}

	var attachment *RawMedia
	switch {
	case raw.Text != "":
		msg.Content = raw.Text
	case raw.ExtendedText != "":
		msg.Content = raw.ExtendedText
	case raw.Image != nil:
		attachment = raw.Image
		msg.MediaType = media.TypeImage
		msg.Content = placeholder("[Image]", raw.Image.Caption)
	case raw.Video != nil:
		attachment = raw.Video
		msg.MediaType = media.TypeVideo
		msg.Content = placeholder("[Video]", raw.Video.Caption)
	case raw.Document != nil:
		attachment = raw.Document
		msg.MediaType = media.TypeDocument
		msg.Content = placeholder("[Document]", firstNonEmpty(raw.Document.Caption, raw.Document.FileName))
	case raw.Sticker != nil:
		attachment = raw.Sticker
		msg.MediaType = media.TypeSticker
		msg.Content = "[Sticker]"
	case raw.Audio != nil:
		attachment = raw.Audio
		if raw.Audio.PTT {
			msg.MediaType = media.TypeVoice
			msg.Content = "[Voice message]"
		} else {
			msg.MediaType = media.TypeAudio
			msg.Content = "[Audio]"
		}
	}

	if attachment != nil {
		msg.MimeType = attachment.MimeType
		msg.Caption = attachment.Caption
	}
	return msg, attachment
}

// download fetches an attachment into the media cache and returns the local
// path, or "" when the fetch failed or yielded zero bytes. Either way the
// event itself is still forwarded.
func (s *Session) download(m *RawMedia, id string, kind media.Type, mimeType string) string {
	data, err := s.tr.Download(context.Background(), m)
	if err != nil {
		slog.Warn("media download failed", "id", id, "type", kind, "error", err)
		return ""
	}
	if len(data) == 0 {
		slog.Warn("media download empty, skipping", "id", id, "type", kind)
		return ""
	}
	if id == "" {
		id = uuid.NewString()
	}
	name := fmt.Sprintf("%s_%d.%s", id, time.Now().UnixMilli(), media.ExtensionFor(kind, mimeType))
	path := filepath.Join(s.mediaDir, name)
	if err := os.MkdirAll(s.mediaDir, 0o755); err != nil {
		slog.Warn("media dir create failed", "dir", s.mediaDir, "error", err)
		return ""
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("media write failed", "path", path, "error", err)
		return ""
	}
	return path
}

func placeholder(tag, caption string) string {
	if caption == "" {
		return tag
	}
	return tag + " " + caption
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
