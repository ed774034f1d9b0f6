// Package echo implements the smoke-test server: it sends back whatever it
// receives, byte for byte, until the client closes the connection.
package echo

import (
	"errors"
	"io"
	"net"

	"go.uber.org/zap"
)

type Server struct {
	log *zap.Logger
}

func NewServer(log *zap.Logger) *Server {
	return &Server{log: log}
}

func (s *Server) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	log := s.log.With(zap.String("remote_addr", conn.RemoteAddr().String()))
	log.Info("client connected")

	n, err := io.Copy(conn, conn)
	if err != nil {
		log.Warn("echo failed", zap.Error(err))
	}
	log.Info("client disconnected", zap.Int64("bytes", n))
}
