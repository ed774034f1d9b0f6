package speed

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ErrAlreadyIdentified is returned when a connection attempts a second role
// transition. A client identifies itself at most once per connection.
var ErrAlreadyIdentified = errors.New("client has already identified itself")

// Role is the identity a connection has claimed. A connection starts
// Unidentified and transitions exactly once to Camera or Dispatcher.
type Role interface {
	isRole()
}

// Unidentified is the role of a freshly accepted connection.
type Unidentified struct{}

// A Camera is on a specific road, at a specific mile marker, and knows the
// road's speed limit in miles per hour.
type Camera struct {
	Road  uint16
	Mile  uint16
	Limit uint16
}

// A Dispatcher is responsible for some number of roads. Tickets for
// violations on those roads are written to its connection.
type Dispatcher struct {
	Roads    []uint16
	Outbound *Conn
}

func (Unidentified) isRole() {}
func (Camera) isRole()       {}
func (Dispatcher) isRole()   {}

// A Sighting is one observation of a plate at a camera's location and time.
// The camera's road, mile and limit are resolved through the registry.
type Sighting struct {
	Camera    uuid.UUID
	Plate     string
	Timestamp uint32
}

// State is the registry of connected clients and the log of sightings they
// have reported. It is shared by every connection handler and the violation
// engine; a single lock guards both structures because the engine reads them
// together. The lock is never held across network I/O.
type State struct {
	mu        sync.Mutex
	clients   map[uuid.UUID]Role
	sightings []Sighting
}

func NewState() *State {
	return &State{clients: make(map[uuid.UUID]Role)}
}

// Register adds a new connection in the Unidentified role.
func (s *State) Register(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[id] = Unidentified{}
}

// Identify transitions id to the given role. The check-and-set is atomic:
// when two identification messages race, exactly one succeeds.
func (s *State) Identify(id uuid.UUID, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id].(Unidentified); !ok {
		return ErrAlreadyIdentified
	}
	s.clients[id] = role
	return nil
}

// RecordSighting appends a plate observation attributed to the given camera
// connection.
func (s *State) RecordSighting(camera uuid.UUID, plate string, timestamp uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sightings = append(s.sightings, Sighting{Camera: camera, Plate: plate, Timestamp: timestamp})
}

// Disconnect removes the registry entry for id unless it is a camera.
// Camera entries outlive their connection so that sightings already logged
// remain resolvable to a road, mile and limit; dispatcher routing, by
// contrast, is meaningless once the connection is gone.
func (s *State) Disconnect(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id].(Camera); ok {
		return
	}
	delete(s.clients, id)
}

// Snapshot returns a consistent copy of the registry and the sighting log.
func (s *State) Snapshot() (map[uuid.UUID]Role, []Sighting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clients := make(map[uuid.UUID]Role, len(s.clients))
	for id, role := range s.clients {
		clients[id] = role
	}
	return clients, slices.Clone(s.sightings)
}

// DispatcherFor returns the outbound handle of a currently connected
// dispatcher responsible for road, or nil if there is none. The handle is
// captured under the lock but written to outside it.
func (s *State) DispatcherFor(road uint16) *Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, role := range s.clients {
		if d, ok := role.(Dispatcher); ok && slices.Contains(d.Roads, road) {
			return d.Outbound
		}
	}
	return nil
}
