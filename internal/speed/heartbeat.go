package speed

import (
	"time"

	"go.uber.org/zap"
)

// Decisecond is the unit of the WantHeartbeat interval field.
const Decisecond = 100 * time.Millisecond

// runHeartbeat emits a Heartbeat message on the connection every interval
// until the connection closes or a write fails. Write failures terminate the
// emitter silently; the session's read loop detects closure on its own.
func runHeartbeat(conn *Conn, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			if err := conn.WriteMessage(&HeartbeatMessage{}); err != nil {
				log.Debug("heartbeat write failed", zap.Stringer("connection", conn.ID), zap.Error(err))
				return
			}
		}
	}
}
