package speed

import (
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"
)

// Protocol errors sent to clients before disconnecting them.
var (
	errAlreadyIdentified      = &ErrorMessage{Msg: "client has already identified itself"}
	errNotACamera             = &ErrorMessage{Msg: "only cameras can report plates"}
	errMultipleWantHeartbeats = &ErrorMessage{Msg: "multiple WantHeartbeat messages"}
	errMalformedMessage       = &ErrorMessage{Msg: "malformed message"}
)

// Handle runs the session for one client connection: it reads messages in
// arrival order, drives the role state machine, and records sightings. It
// returns when the client disconnects or commits a protocol error.
func (s *Server) Handle(conn net.Conn) error {
	c := newConn(conn)
	log := s.log.With(zap.Stringer("connection", c.ID), zap.String("remote_addr", conn.RemoteAddr().String()))
	log.Info("client connected")

	roleName := "unidentified"
	s.metrics.ClientsConnected.WithLabelValues(roleName).Inc()

	s.state.Register(c.ID)
	defer func() {
		s.state.Disconnect(c.ID)
		s.metrics.ClientsConnected.WithLabelValues(roleName).Dec()
		closeOrLog(c, log)
		log.Info("client disconnected")
	}()

	var role Role = Unidentified{}
	for {
		m, err := c.ReadMessage()
		if err != nil {
			return s.readError(c, err, log)
		}

		switch m := m.(type) {
		case *WantHeartbeatMessage:
			// It is an error for a client to send multiple WantHeartbeat
			// messages on a single connection. An interval of 0 means the
			// client wants no heartbeats, which still uses up its request.
			if c.heartbeatRequested {
				return s.protocolError(c, errMultipleWantHeartbeats, log)
			}
			c.heartbeatRequested = true
			if m.Interval > 0 {
				go runHeartbeat(c, time.Duration(m.Interval)*Decisecond, s.log)
			}

		case *IAmCameraMessage:
			camera := Camera{Road: m.Road, Mile: m.Mile, Limit: m.Limit}
			if err := s.state.Identify(c.ID, camera); err != nil {
				return s.protocolError(c, errAlreadyIdentified, log)
			}
			role = camera
			s.metrics.ClientsConnected.WithLabelValues(roleName).Dec()
			roleName = "camera"
			s.metrics.ClientsConnected.WithLabelValues(roleName).Inc()
			log.Info("camera identified",
				zap.Uint16("road", camera.Road), zap.Uint16("mile", camera.Mile), zap.Uint16("limit", camera.Limit))

		case *IAmDispatcherMessage:
			dispatcher := Dispatcher{Roads: m.Roads, Outbound: c}
			if err := s.state.Identify(c.ID, dispatcher); err != nil {
				return s.protocolError(c, errAlreadyIdentified, log)
			}
			role = dispatcher
			s.metrics.ClientsConnected.WithLabelValues(roleName).Dec()
			roleName = "dispatcher"
			s.metrics.ClientsConnected.WithLabelValues(roleName).Inc()
			log.Info("dispatcher identified", zap.Uint16s("roads", m.Roads))

		case *PlateMessage:
			camera, ok := role.(Camera)
			if !ok {
				return s.protocolError(c, errNotACamera, log)
			}
			s.state.RecordSighting(c.ID, m.Plate, m.Timestamp)
			s.metrics.SightingsRecorded.Inc()
			log.Debug("sighting recorded",
				zap.String("plate", m.Plate), zap.Uint32("timestamp", m.Timestamp),
				zap.Uint16("road", camera.Road), zap.Uint16("mile", camera.Mile))
		}
	}
}

// readError turns a failed read into the appropriate session outcome: a
// clean EOF on a message boundary ends the session silently, a decode-format
// problem is answered with an Error message, and an I/O failure closes the
// connection without one since the channel is presumed already broken.
func (s *Server) readError(c *Conn, err error, log *zap.Logger) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	var unknown *UnknownMessageTypeError
	switch {
	case errors.As(err, &unknown):
		return s.protocolError(c, &ErrorMessage{Msg: unknown.Error()}, log)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return s.protocolError(c, errMalformedMessage, log)
	default:
		log.Debug("read failed", zap.Error(err))
		return err
	}
}

// protocolError sends an Error message and reports the violation. The
// deferred cleanup in Handle closes the connection.
func (s *Server) protocolError(c *Conn, m *ErrorMessage, log *zap.Logger) error {
	s.metrics.ProtocolErrors.Inc()
	log.Info("protocol error", zap.String("msg", m.Msg))
	if err := c.WriteMessage(m); err != nil {
		log.Debug("error write failed", zap.Error(err))
	}
	return errors.New(m.Msg)
}

func closeOrLog(c *Conn, log *zap.Logger) {
	if err := c.Close(); err != nil {
		log.Debug("error closing connection", zap.Error(err))
	}
}
