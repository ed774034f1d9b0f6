package speed

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"
)

// nopConn is a net.Conn that reads nothing and discards writes.
type nopConn struct{}

func (nopConn) Read([]byte) (int, error)         { return 0, io.EOF }
func (nopConn) Write(b []byte) (int, error)      { return len(b), nil }
func (nopConn) Close() error                     { return nil }
func (nopConn) LocalAddr() net.Addr              { return &net.TCPAddr{} }
func (nopConn) RemoteAddr() net.Addr             { return &net.TCPAddr{} }
func (nopConn) SetDeadline(time.Time) error      { return nil }
func (nopConn) SetReadDeadline(time.Time) error  { return nil }
func (nopConn) SetWriteDeadline(time.Time) error { return nil }

// recordConn captures everything written to it.
type recordConn struct {
	nopConn
	buf bytes.Buffer
}

func (c *recordConn) Write(b []byte) (int, error) { return c.buf.Write(b) }

// brokenConn fails every write.
type brokenConn struct {
	nopConn
}

func (brokenConn) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }
