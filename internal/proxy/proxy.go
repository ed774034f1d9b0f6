// Package proxy implements the boguscoin-rewriting chat proxy. Each client
// connection gets a corresponding upstream connection; complete lines are
// relayed in both directions with Boguscoin addresses rewritten to Tony's.
package proxy

import (
	"bufio"
	"errors"
	"net"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultUpstreamAddr = "chat.protohackers.com:16963"
	tonyAddress         = "7YWHMfk9JZe0LM0g1ZauHuiSxhI"
)

type Server struct {
	upstreamAddr string
	log          *zap.Logger
}

func NewServer(upstreamAddr string, log *zap.Logger) *Server {
	return &Server{upstreamAddr: upstreamAddr, log: log}
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

func (s *Server) handle(client net.Conn) {
	defer client.Close()
	log := s.log.With(zap.String("remote_addr", client.RemoteAddr().String()))

	upstream, err := net.Dial("tcp", s.upstreamAddr)
	if err != nil {
		log.Warn("upstream dial failed", zap.Error(err))
		return
	}
	defer upstream.Close()

	// Either direction ending (EOF or error) tears down both connections so
	// the opposite relay unblocks.
	var g errgroup.Group
	g.Go(func() error {
		defer client.Close()
		defer upstream.Close()
		return relay(client, upstream)
	})
	g.Go(func() error {
		defer client.Close()
		defer upstream.Close()
		return relay(upstream, client)
	})
	if err := g.Wait(); err != nil {
		log.Debug("relay ended", zap.Error(err))
	}
}

// relay copies complete lines from src to dst, rewriting Boguscoin
// addresses. A final unterminated line is not a chat message and is dropped.
func relay(src, dst net.Conn) error {
	reader := bufio.NewReader(src)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		if _, err := dst.Write([]byte(rewriteBoguscoin(line))); err != nil {
			return err
		}
	}
}

// rewriteBoguscoin replaces every Boguscoin address in the message with
// Tony's. A Boguscoin address is a space-separated word of 26 to 35
// alphanumeric characters starting with "7".
func rewriteBoguscoin(message string) string {
	hadNewline := strings.HasSuffix(message, "\n")
	message = strings.TrimSuffix(message, "\n")

	words := strings.Split(message, " ")
	for i, word := range words {
		if isBoguscoinAddress(word) {
			words[i] = tonyAddress
		}
	}

	message = strings.Join(words, " ")
	if hadNewline {
		message += "\n"
	}
	return message
}

func isBoguscoinAddress(word string) bool {
	if len(word) < 26 || len(word) > 35 || word[0] != '7' {
		return false
	}
	for _, r := range word {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}
