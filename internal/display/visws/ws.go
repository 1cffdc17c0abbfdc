// Package visws streams display changes to browsers over websockets.
package visws

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/psidex/bmmap/internal/display"
	"github.com/psidex/bmmap/internal/lib"
)

// Broadcaster is a Display that forwards every change to the connected clients.
// A client whose write fails is dropped; that never fails the display call, the
// client can reconnect and receive a fresh init message.
type Broadcaster struct {
	mu      *sync.Mutex
	logger  *slog.Logger
	clients map[string]lib.ThreadSafeWebSocket
}

var _ display.Display = (*Broadcaster)(nil)

func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = lib.DiscardLogger()
	}
	return &Broadcaster{
		mu:      &sync.Mutex{},
		logger:  logger,
		clients: make(map[string]lib.ThreadSafeWebSocket),
	}
}

// Attach registers ws and sends it an init message holding initial, usually the
// current snapshot of the rendered data. It returns the id used to Detach.
func (b *Broadcaster) Attach(ws lib.ThreadSafeWebSocket, initial Message) (string, error) {
	initial.Type = TypeInit
	if err := ws.WriteJSON(initial); err != nil {
		return "", err
	}

	id := uuid.NewString()
	b.mu.Lock()
	b.clients[id] = ws
	b.mu.Unlock()

	b.logger.Debug("websocket client attached", "client", id)
	return id, nil
}

func (b *Broadcaster) Detach(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[id]; ok {
		delete(b.clients, id)
		b.logger.Debug("websocket client detached", "client", id)
	}
}

// Clients returns the number of attached clients.
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) Init(nodes []display.Node, edges []display.Edge) error {
	b.broadcast(Message{Type: TypeInit, Nodes: nodes, Edges: edges})
	return nil
}

func (b *Broadcaster) Add(nodes []display.Node, edges []display.Edge) error {
	if len(nodes) == 0 && len(edges) == 0 {
		return nil
	}
	b.broadcast(Message{Type: TypeAdd, Nodes: nodes, Edges: edges})
	return nil
}

func (b *Broadcaster) Clear() error {
	b.broadcast(Message{Type: TypeClear})
	return nil
}

func (b *Broadcaster) broadcast(msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ws := range b.clients {
		if err := ws.WriteJSON(msg); err != nil {
			b.logger.Warn("dropping websocket client", "client", id, "error", err)
			_ = ws.Close()
			delete(b.clients, id)
		}
	}
}
