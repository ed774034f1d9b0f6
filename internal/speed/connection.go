package speed

import (
	"bufio"
	"encoding"
	"net"
	"sync"

	"github.com/google/uuid"
)

// A Conn wraps a client connection with its registry identity. The read side
// belongs exclusively to the session loop; the write side is shared between
// the session, its heartbeat emitter, and the violation engine, so writes
// are serialized by a mutex and whole messages are never interleaved.
type Conn struct {
	net.Conn
	ID uuid.UUID

	r *bufio.Reader

	// wmu protects concurrent write access.
	wmu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}

	// heartbeatRequested is owned by the session goroutine.
	heartbeatRequested bool
}

func newConn(conn net.Conn) *Conn {
	return &Conn{
		Conn: conn,
		ID:   uuid.New(),
		r:    bufio.NewReader(conn),
		done: make(chan struct{}),
	}
}

// ReadMessage reads the next client message from the connection.
func (c *Conn) ReadMessage() (Message, error) {
	return ReadMessage(c.r)
}

// WriteMessage marshals m and writes it as a single frame.
func (c *Conn) WriteMessage(m encoding.BinaryMarshaler) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err = c.Conn.Write(data)
	return err
}

// Close closes the connection and signals the heartbeat emitter, if any.
// Closing an already closed connection is harmless.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.Conn.Close()
}
