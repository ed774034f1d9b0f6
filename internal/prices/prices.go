// Package prices implements the asset price store and query server. Messages
// are fixed 9-byte binary frames with no delimiter: a type byte ('I' or 'Q')
// followed by two big-endian signed 32-bit integers. Each client session has
// its own price store.
package prices

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"net"

	"go.uber.org/zap"
)

const frameSize = 9

type frameType = byte

const (
	insertFrame frameType = 'I'
	queryFrame  frameType = 'Q'
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

	store := newStore()
	reader := bufio.NewReader(conn)
	frame := make([]byte, frameSize)
	for {
		if _, err := io.ReadFull(reader, frame); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("read failed", zap.Error(err))
			}
			return
		}

		a := int32(binary.BigEndian.Uint32(frame[1:5]))
		b := int32(binary.BigEndian.Uint32(frame[5:9]))
		switch frame[0] {
		case insertFrame:
			store.insert(a, b)
		case queryFrame:
			mean := store.mean(a, b)
			if err := binary.Write(conn, binary.BigEndian, mean); err != nil {
				log.Warn("write failed", zap.Error(err))
				return
			}
		default:
			// Behavior for other types is undefined; drop the client.
			log.Info("undefined frame type", zap.Uint8("type", frame[0]))
			return
		}
	}
}

// store holds one session's prices by timestamp. An insert with a timestamp
// that was already used replaces the earlier price (undefined by the
// protocol; this matches map semantics).
type store struct {
	prices map[int32]int32
}

func newStore() *store {
	return &store{prices: make(map[int32]int32)}
}

func (s *store) insert(timestamp, price int32) {
	s.prices[timestamp] = price
}

// mean returns the average price over the inclusive timestamp range,
// truncated toward zero, or 0 when the range is empty or inverted.
func (s *store) mean(mintime, maxtime int32) int32 {
	if mintime > maxtime {
		return 0
	}
	var sum, count int64
	for timestamp, price := range s.prices {
		if timestamp >= mintime && timestamp <= maxtime {
			sum += int64(price)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return int32(sum / count)
}
