// Package kv implements the UDP key-value store. A request containing an
// equals sign is an insert (the first "=" splits key from value); anything
// else is a retrieve, answered with "key=value". The "version" key is
// reserved and cannot be modified.
package kv

import (
	"net"
	"strings"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	// All requests and responses must be shorter than 1000 bytes.
	maxRequestSize = 1000

	versionKey   = "version"
	versionValue = "Ken's Key-Value Store 1.0"
)

// Store holds the database contents. Values never expire; the process
// lifetime is the retention policy.
type Store struct {
	data *cache.Cache
}

func NewStore() *Store {
	return &Store{data: cache.New(cache.NoExpiration, 0)}
}

// Set inserts or replaces a key. Inserts for the version key are ignored.
func (s *Store) Set(key, value string) {
	if key == versionKey {
		return
	}
	s.data.Set(key, value, cache.NoExpiration)
}

// Get retrieves a key; absent keys read as empty.
func (s *Store) Get(key string) string {
	if key == versionKey {
		return versionValue
	}
	value, ok := s.data.Get(key)
	if !ok {
		return ""
	}
	return value.(string)
}

type Server struct {
	store *Store
	log   *zap.Logger
}

func NewServer(store *Store, log *zap.Logger) *Server {
	return &Server{store: store, log: log}
}

func (s *Server) Serve(conn net.PacketConn) error {
	buf := make([]byte, maxRequestSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			return err
		}
		if response, ok := s.respond(string(buf[:n])); ok {
			if _, err := conn.WriteTo([]byte(response), addr); err != nil {
				s.log.Warn("write failed", zap.Error(err))
			}
		}
	}
}

// respond handles one request, returning the reply datagram if any.
func (s *Server) respond(request string) (string, bool) {
	if key, value, isInsert := strings.Cut(request, "="); isInsert {
		s.log.Debug("insert", zap.String("key", key))
		s.store.Set(key, value)
		return "", false
	}
	value := s.store.Get(request)
	s.log.Debug("retrieve", zap.String("key", request))
	return request + "=" + value, true
}
