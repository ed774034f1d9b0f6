// Package speed implements the Speed Daemon: a TCP server that ingests
// vehicle sightings from camera clients, computes average-speed violations,
// and delivers at most one ticket per car per day to a ticket dispatcher
// responsible for the road, possibly one that connects only later.
package speed

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server coordinates enforcement of average speed limits on the road
// network. Clients connect over TCP and speak a binary protocol; when a
// client does something the protocol declares an error, the server sends an
// appropriate Error message and disconnects that client.
type Server struct {
	cfg     SpeedConfig
	log     *zap.Logger
	metrics *Metrics
	state   *State
	engine  *Engine
}

func NewServer(cfg SpeedConfig, log *zap.Logger, metrics *Metrics) *Server {
	state := NewState()
	return &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		state:   state,
		engine:  NewEngine(state, time.Duration(cfg.PollInterval), log, metrics),
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
// The violation engine runs alongside the accept loop.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.log.Info("listening", zap.Stringer("addr", listener.Addr()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.engine.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})
	g.Go(func() error {
		return s.acceptLoop(listener)
	})
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		go func() {
			if err := s.Handle(conn); err != nil {
				s.log.Debug("session ended", zap.Error(err))
			}
		}()
	}
}
