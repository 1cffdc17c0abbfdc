package lib

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWriteTimeout bounds every write of a ThreadSafeWebSocket unless
// WithWriteTimeout says otherwise.
const DefaultWriteTimeout = 5 * time.Second

// ThreadSafeWebSocket wraps a websocket.Conn so many goroutines can read and write
// without tracking access themselves. All writes block each other, as do all reads.
// See https://pkg.go.dev/github.com/gorilla/websocket#hdr-Concurrency.
//
// A write that cannot complete within the write timeout fails, a peer that
// stopped reading never blocks the writer for longer than that. The connection
// is unusable after such a failure.
type ThreadSafeWebSocket struct {
	c            *websocket.Conn
	writeMu      *sync.Mutex
	readMu       *sync.Mutex
	writeTimeout time.Duration
}

func NewThreadSafeWebSocket(c *websocket.Conn) ThreadSafeWebSocket {
	return ThreadSafeWebSocket{c, &sync.Mutex{}, &sync.Mutex{}, DefaultWriteTimeout}
}

// WithWriteTimeout returns a copy of s whose writes give up after d. A d of zero
// or less disables the deadline.
func (s ThreadSafeWebSocket) WithWriteTimeout(d time.Duration) ThreadSafeWebSocket {
	s.writeTimeout = d
	return s
}

func (s ThreadSafeWebSocket) ReadMessage() (int, []byte, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	return s.c.ReadMessage()
}

func (s ThreadSafeWebSocket) WriteMessage(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.setWriteDeadline(); err != nil {
		return err
	}
	return s.c.WriteMessage(messageType, data)
}

func (s ThreadSafeWebSocket) WriteJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.setWriteDeadline(); err != nil {
		return err
	}
	return s.c.WriteJSON(v)
}

func (s ThreadSafeWebSocket) setWriteDeadline() error {
	if s.writeTimeout <= 0 {
		return s.c.SetWriteDeadline(time.Time{})
	}
	return s.c.SetWriteDeadline(time.Now().Add(s.writeTimeout))
}

func (s ThreadSafeWebSocket) Close() error {
	return s.c.Close()
}
