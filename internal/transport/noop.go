package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

func init() {
	RegisterDriver("noop", func() Transport { return &noopTransport{} })
}

// noopTransport is a loopback driver for running the control plane without a
// real chat transport: it reports connected, accepts every send and discards
// it, and delivers no inbound events.
type noopTransport struct {
	mu       sync.Mutex
	handlers Handlers
}

func (n *noopTransport) Bind(h Handlers) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = h
}

func (n *noopTransport) Connect(ctx context.Context, credentialDir string) error {
	n.mu.Lock()
	h := n.handlers
	n.mu.Unlock()
	slog.Info("noop transport connected", "credentialDir", credentialDir)
	if h.OnStatus != nil {
		h.OnStatus(StatusEvent{Status: StatusConnected})
	}
	return nil
}

func (n *noopTransport) Send(ctx context.Context, to string, p Payload) (string, error) {
	slog.Info("noop transport send discarded", "to", to, "kind", p.Kind)
	return uuid.NewString(), nil
}

func (n *noopTransport) Download(ctx context.Context, m *RawMedia) ([]byte, error) {
	return nil, errors.New("noop transport has no media")
}

func (n *noopTransport) Disconnect() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = Handlers{}
	return nil
}
