package speed

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the violation engine rescans the sighting
// log. The exact value is a tunable, not a correctness requirement.
const DefaultPollInterval = 100 * time.Millisecond

const secondsPerDay = 86400

// dayKey marks that a ticket touching this calendar day was already issued
// for this plate. Days are counted in whole days since the epoch.
type dayKey struct {
	plate string
	day   uint32
}

// Engine periodically recomputes speeding violations from the sighting log
// and delivers tickets to dispatchers. Candidates with no reachable
// dispatcher are simply recomputed on the next cycle; the scan is
// deterministic given the same sightings, so a retried candidate is
// identical, not duplicated. Deduplication lives here: the issued-ticket set
// and the per-day markers are owned by the engine goroutine alone.
type Engine struct {
	state   *State
	period  time.Duration
	log     *zap.Logger
	metrics *Metrics

	issued     map[TicketMessage]struct{}
	issuedDays map[dayKey]struct{}
}

func NewEngine(state *State, period time.Duration, log *zap.Logger, metrics *Metrics) *Engine {
	if period <= 0 {
		period = DefaultPollInterval
	}
	return &Engine{
		state:      state,
		period:     period,
		log:        log,
		metrics:    metrics,
		issued:     make(map[TicketMessage]struct{}),
		issuedDays: make(map[dayKey]struct{}),
	}
}

// Run scans on a fixed period until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.scan()
		}
	}
}

// observation is a sighting with its camera context resolved.
type observation struct {
	road      uint16
	mile      uint16
	limit     uint16
	timestamp uint32
}

// scan runs one engine cycle: snapshot, compute candidates, deliver.
func (e *Engine) scan() {
	clients, sightings := e.state.Snapshot()
	for _, t := range candidates(clients, sightings) {
		e.deliver(t)
	}
}

// candidates computes every speeding violation derivable from the snapshot.
// Sightings are grouped by plate and sorted by timestamp; only consecutive
// pairs on the same road qualify. Sightings whose camera is no longer
// resolvable are skipped; the retention rule makes that impossible in
// practice, but a stale read must not crash the engine.
func candidates(clients map[uuid.UUID]Role, sightings []Sighting) []TicketMessage {
	byPlate := make(map[string][]observation)
	for _, s := range sightings {
		camera, ok := clients[s.Camera].(Camera)
		if !ok {
			continue
		}
		byPlate[s.Plate] = append(byPlate[s.Plate], observation{
			road:      camera.Road,
			mile:      camera.Mile,
			limit:     camera.Limit,
			timestamp: s.Timestamp,
		})
	}

	var tickets []TicketMessage
	for plate, obs := range byPlate {
		sort.Slice(obs, func(i, j int) bool { return obs[i].timestamp < obs[j].timestamp })
		for i := 1; i < len(obs); i++ {
			first, second := obs[i-1], obs[i]
			if first.road != second.road {
				continue
			}
			speed, ok := averageSpeed(first, second)
			if !ok || speed <= uint32(first.limit)*100 {
				continue
			}
			tickets = append(tickets, TicketMessage{
				Plate:      plate,
				Road:       first.road,
				Mile1:      first.mile,
				Timestamp1: first.timestamp,
				Mile2:      second.mile,
				Timestamp2: second.timestamp,
				Speed:      uint16(speed),
			})
		}
	}
	return tickets
}

// averageSpeed returns the average speed between two observations in
// hundredths of miles per hour, rounded half-up. Pairs with zero distance or
// zero elapsed time are undefined and reported as not ok.
func averageSpeed(first, second observation) (uint32, bool) {
	distance := first.mile - second.mile
	if second.mile > first.mile {
		distance = second.mile - first.mile
	}
	elapsed := second.timestamp - first.timestamp
	if distance == 0 || elapsed == 0 {
		return 0, false
	}
	mph := float64(distance) / float64(elapsed) * 3600
	return uint32(math.Round(mph * 100)), true
}

// deliver sends t to a dispatcher for its road, unless a ticket with the
// same fields was already issued or the plate already got a ticket touching
// either observation day. The issued set and day markers are updated only on
// a successful write, atomically from the engine's point of view, so a
// failed delivery leaves the candidate pending for the next cycle.
func (e *Engine) deliver(t TicketMessage) {
	if _, ok := e.issued[t]; ok {
		return
	}
	day1 := dayKey{plate: t.Plate, day: t.Timestamp1 / secondsPerDay}
	day2 := dayKey{plate: t.Plate, day: t.Timestamp2 / secondsPerDay}
	if _, ok := e.issuedDays[day1]; ok {
		return
	}
	if _, ok := e.issuedDays[day2]; ok {
		return
	}

	dispatcher := e.state.DispatcherFor(t.Road)
	if dispatcher == nil {
		e.metrics.TicketsDeferred.Inc()
		e.log.Debug("no dispatcher for road, ticket pending",
			zap.Uint16("road", t.Road), zap.String("plate", t.Plate))
		return
	}
	if err := dispatcher.WriteMessage(&t); err != nil {
		e.metrics.TicketsDeferred.Inc()
		e.log.Debug("ticket delivery failed, will retry",
			zap.Uint16("road", t.Road), zap.String("plate", t.Plate), zap.Error(err))
		return
	}

	e.issued[t] = struct{}{}
	e.issuedDays[day1] = struct{}{}
	e.issuedDays[day2] = struct{}{}
	e.metrics.TicketsIssued.Inc()
	e.log.Info("ticket issued",
		zap.String("plate", t.Plate), zap.Uint16("road", t.Road), zap.Uint16("speed", t.Speed))
}
