package lrcp

import (
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// RetransmissionTimeout is how long to wait before retransmitting
	// unacknowledged payload.
	RetransmissionTimeout = 3 * time.Second
	// SessionExpiryTimeout is how long to wait, with no acknowledgment
	// progress, before accepting that the peer has disappeared.
	SessionExpiryTimeout = 60 * time.Second

	// dataOverhead reserves packet space for "/data/<session>/<pos>//" with
	// ten-digit numeric fields.
	dataOverhead = 30
)

// Server is an LRCP listener running the line-reversal application: every
// line received on a session is sent back reversed.
type Server struct {
	conn net.PacketConn
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[uint32]*session
}

type session struct {
	id   uint32
	addr net.Addr

	// Receive side: recvLen is the length of the contiguous byte stream
	// received so far; lineBuf holds the current incomplete line.
	recvLen uint32
	lineBuf strings.Builder

	// Send side: sent is the entire outbound payload stream, acked the
	// length the peer has confirmed.
	sent  []byte
	acked uint32

	// lastProgress is the last time the peer acknowledged new data (or the
	// session was created); stalled sessions expire.
	lastProgress time.Time
}

func NewServer(conn net.PacketConn, log *zap.Logger) *Server {
	return &Server{
		conn:     conn,
		log:      log,
		sessions: make(map[uint32]*session),
	}
}

// Serve reads packets until the socket is closed. A background timer drives
// retransmission and session expiry.
func (s *Server) Serve() error {
	stop := make(chan struct{})
	defer close(stop)
	go s.timerLoop(stop)

	buf := make([]byte, MaxPacketSize+1)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			return err
		}
		// Packets of 1000 bytes or more are not LRCP; ignore them, like any
		// other illegal packet.
		if n >= MaxPacketSize {
			continue
		}
		m, err := ParseMessage(string(buf[:n]))
		if err != nil {
			s.log.Debug("ignoring illegal packet", zap.Error(err))
			continue
		}
		s.handleMessage(m, addr)
	}
}

func (s *Server) handleMessage(m Message, addr net.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := m.(type) {
	case *ConnectMessage:
		if _, ok := s.sessions[m.Session]; !ok {
			s.sessions[m.Session] = &session{
				id:           m.Session,
				addr:         addr,
				lastProgress: time.Now(),
			}
			s.log.Info("session opened", zap.Uint32("session", m.Session))
		}
		s.send(addr, formatAck(m.Session, 0))

	case *DataMessage:
		sess, ok := s.sessions[m.Session]
		if !ok {
			s.send(addr, formatClose(m.Session))
			return
		}
		sess.addr = addr
		if m.Pos == sess.recvLen {
			sess.recvLen += uint32(len(m.Data))
			s.sendAck(sess)
			s.reverseLines(sess, m.Data)
		} else {
			// Missed or duplicate data: re-ack what we actually have.
			s.sendAck(sess)
		}

	case *AckMessage:
		sess, ok := s.sessions[m.Session]
		if !ok {
			s.send(addr, formatClose(m.Session))
			return
		}
		switch {
		case m.Length > uint32(len(sess.sent)):
			// The peer acknowledged data we never sent: it is misbehaving.
			s.send(sess.addr, formatClose(sess.id))
			delete(s.sessions, sess.id)
			s.log.Info("misbehaving peer", zap.Uint32("session", sess.id))
		case m.Length > sess.acked:
			sess.acked = m.Length
			sess.lastProgress = time.Now()
		}

	case *CloseMessage:
		if _, ok := s.sessions[m.Session]; ok {
			delete(s.sessions, m.Session)
			s.log.Info("session closed", zap.Uint32("session", m.Session))
		}
		s.send(addr, formatClose(m.Session))
	}
}

// reverseLines feeds payload into the session's line buffer and replies with
// every completed line reversed.
func (s *Server) reverseLines(sess *session, data string) {
	for _, b := range []byte(data) {
		if b != '\n' {
			sess.lineBuf.WriteByte(b)
			continue
		}
		line := sess.lineBuf.String()
		sess.lineBuf.Reset()
		s.sendPayload(sess, reverse(line)+"\n")
	}
}

// sendPayload appends data to the session's outbound stream and transmits
// it. Unacknowledged bytes are retransmitted by the timer loop.
func (s *Server) sendPayload(sess *session, data string) {
	pos := uint32(len(sess.sent))
	sess.sent = append(sess.sent, data...)
	s.transmitFrom(sess, pos)
}

// transmitFrom sends the outbound stream starting at pos, chunked so that no
// packet exceeds the LRCP size limit even after escaping.
func (s *Server) transmitFrom(sess *session, pos uint32) {
	for pos < uint32(len(sess.sent)) {
		budget := MaxPacketSize - dataOverhead
		var chunk strings.Builder
		end := pos
		for end < uint32(len(sess.sent)) {
			b := sess.sent[end]
			size := 1
			if b == '/' || b == '\\' {
				size = 2
			}
			if chunk.Len()+size > budget {
				break
			}
			chunk.WriteByte(b)
			end++
		}
		s.send(sess.addr, formatData(sess.id, pos, chunk.String()))
		pos = end
	}
}

func (s *Server) sendAck(sess *session) {
	s.send(sess.addr, formatAck(sess.id, sess.recvLen))
}

func (s *Server) send(addr net.Addr, packet string) {
	if _, err := s.conn.WriteTo([]byte(packet), addr); err != nil {
		s.log.Warn("write failed", zap.Error(err))
	}
}

// timerLoop retransmits unacknowledged payload and expires sessions whose
// peer has stopped acknowledging.
func (s *Server) timerLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(RetransmissionTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for id, sess := range s.sessions {
				if sess.acked == uint32(len(sess.sent)) {
					continue
				}
				if now.Sub(sess.lastProgress) > SessionExpiryTimeout {
					delete(s.sessions, id)
					s.log.Info("session expired", zap.Uint32("session", id))
					continue
				}
				s.transmitFrom(sess, sess.acked)
			}
			s.mu.Unlock()
		}
	}
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
