// Package wsstream streams playback snapshots over WebSocket to a live
// viewer. It implements storage.Backend; every render tick becomes one
// envelope on the wire.
package wsstream

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/loganintech/rl-replay-zone-visualizer/internal/storage"
)

// Message types understood by the viewer server.
const (
	TypeStartReplay = "start_replay"
	TypeSnapshot    = "snapshot"
	TypeEndReplay   = "end_replay"
)

// Envelope wraps every message on the wire.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AckMessage is the server's acknowledgement of a lifecycle message.
type AckMessage struct {
	Type  string `json:"type"`
	For   string `json:"for"`
	Error string `json:"error,omitempty"`
}

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams snapshots to the viewer server.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartReplay sends the replay metadata and waits for the server ack.
func (b *Backend) StartReplay(meta storage.ReplayMeta) error {
	data, err := marshalEnvelope(TypeStartReplay, meta)
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.cachedStart = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, TypeStartReplay, ackTimeout)
}

// EndReplay sends end_replay and waits for the server ack.
func (b *Backend) EndReplay() error {
	data, err := marshalEnvelope(TypeEndReplay, nil)
	if err != nil {
		return err
	}

	// Clear cached state regardless of error.
	defer func() {
		b.conn.mu.Lock()
		b.conn.cachedStart = nil
		b.conn.mu.Unlock()
	}()

	return b.conn.sendAndWait(data, TypeEndReplay, ackTimeout)
}

// RecordSnapshot pushes one tick to the write loop (fire-and-forget).
func (b *Backend) RecordSnapshot(t storage.Tick) error {
	data, err := marshalEnvelope(TypeSnapshot, t)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}
