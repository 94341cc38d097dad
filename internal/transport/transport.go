// Package transport owns the single logical connection to the external chat
// transport and translates its raw events into the bridge's canonical message
// model. The wire protocol itself (cryptography, pairing internals, message
// encoding) lives behind the Transport interface and is not implemented here.
package transport

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gagent/wabridge/internal/media"
)

// Status is the session's connection state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusQRPending    Status = "qr-pending"
)

// StatusEvent is emitted by a Transport on every connection-state change.
// LoggedOut marks a deliberate logout-type closure; those must not trigger a
// reconnect attempt.
type StatusEvent struct {
	Status    Status
	LoggedOut bool
}

// RawMedia describes one attachment on a raw transport event.
type RawMedia struct {
	MimeType string
	Caption  string
	FileName string
	PTT      bool // audio only: push-to-talk voice note

	// Ref is an opaque transport-side handle used by Download.
	Ref any
}

// RawMessage is a transport event before normalization.
type RawMessage struct {
	ID        string
	Chat      string
	Sender    string
	FromMe    bool
	IsGroup   bool
	Timestamp int64

	Text         string
	ExtendedText string

	Image    *RawMedia
	Video    *RawMedia
	Document *RawMedia
	Sticker  *RawMedia
	Audio    *RawMedia
}

// Handlers receives raw transport events. Zero-value fields are ignored.
type Handlers struct {
	OnMessage func(*RawMessage)
	OnStatus  func(StatusEvent)
	OnQR      func(code string)
}

// Payload is an outbound send request after media resolution. Kind
// media.TypeNone means plain text; otherwise Text carries the caption.
type Payload struct {
	Kind     media.Type
	Text     string
	Path     string
	MimeType string
	FileName string
	PTT      bool
}

// Transport is the external chat-transport capability. Implementations load
// or create pairing credentials under the directory given to Connect and
// report all connection outcomes through the bound Handlers.
type Transport interface {
	// Bind registers event handlers. Must be called before Connect;
	// Disconnect detaches them.
	Bind(Handlers)

	// Connect starts a background connection attempt using credentials
	// persisted under credentialDir. Socket-establishment failures surface
	// through OnStatus, not the return value; a non-nil error means the
	// attempt could not even be started.
	Connect(ctx context.Context, credentialDir string) error

	// Send delivers one message and returns the transport-assigned id, which
	// may be empty.
	Send(ctx context.Context, to string, p Payload) (id string, err error)

	// Download fetches the raw bytes of an inbound attachment.
	Download(ctx context.Context, m *RawMedia) ([]byte, error)

	// Disconnect tears the connection down. Idempotent.
	Disconnect() error
}

// Factory constructs an unconnected Transport.
type Factory func() Transport

var (
	driverMu sync.Mutex
	drivers  = map[string]Factory{}
)

// RegisterDriver makes a transport implementation available by name.
func RegisterDriver(name string, f Factory) {
	driverMu.Lock()
	defer driverMu.Unlock()
	drivers[name] = f
}

// NewDriver constructs the named transport.
func NewDriver(name string) (Transport, error) {
	driverMu.Lock()
	defer driverMu.Unlock()
	f, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("unknown transport driver %q (have %v)", name, driverNames())
	}
	return f(), nil
}

func driverNames() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
