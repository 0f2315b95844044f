package game

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"pong-arena/internal/geom"
)

// Subscriber receives per-tick snapshots for a match. Implementations must
// not block: a slow or dead connection is the subscriber's problem, never the
// simulation loop's.
type Subscriber interface {
	SendSnapshot(matchID string, snap Snapshot)
}

// InputDriver is an alternative input source for a match, driven once per
// tick before the physics step. The AI controller implements this.
type InputDriver interface {
	Drive(m *Match, dt float64)
}

// Result is the terminal outcome of a match.
type Result struct {
	Score    map[Side]int
	Winner   Side
	Sides    map[string]Side
	Duration float64
}

// entry is the scheduler's bookkeeping for one registered match.
type entry struct {
	match      *Match
	subs       []Subscriber
	drivers    []InputDriver
	serveTicks int // countdown to the next serve; 0 = nothing pending
}

// SchedulerConfig configures the fixed-rate loop.
type SchedulerConfig struct {
	TickRate   int     // Ticks per second, shared by all matches
	ServeDelay float64 // Seconds between a goal and the relaunch
}

// Scheduler owns the set of currently running matches and ticks all of them
// at a fixed rate. It is the single writer of the active-match registry; all
// mutation flows through its public operations.
//
// Ordering: within one match ticks are strictly sequential. Across matches
// there is no ordering guarantee inside a scheduler pass.
type Scheduler struct {
	mu      sync.Mutex
	matches map[string]*entry

	tickRate   int
	serveTicks int
	rng        *rand.Rand

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	// OnFinish is called (outside the scheduler lock) when a match reaches
	// its max score. Set once during wiring, before Start.
	OnFinish func(matchID string, result Result)

	// TickObserver, when set, receives the duration of every scheduler pass.
	// Wired to the metrics package in main.
	TickObserver func(time.Duration)
}

// NewScheduler creates a scheduler. Matches are registered later via AddMatch.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	serveTicks := int(cfg.ServeDelay * float64(cfg.TickRate))
	if serveTicks < 1 {
		serveTicks = 1
	}

	return &Scheduler{
		matches:    make(map[string]*entry),
		tickRate:   cfg.TickRate,
		serveTicks: serveTicks,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		stopChan:   make(chan struct{}),
	}
}

// Start begins the fixed-rate loop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.ticker = time.NewTicker(time.Second / time.Duration(s.tickRate))

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.tick()
			case <-s.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Match scheduler started at %d TPS", s.tickRate)
}

// Stop stops the loop. Registered matches are left as-is.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopChan)
	log.Println("🛑 Match scheduler stopped")
}

// AddMatch registers a match under the given id, starts it, and arms the
// first serve. Registering an id twice replaces the previous match.
func (s *Scheduler) AddMatch(id string, m *Match, drivers ...InputDriver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Start()
	s.matches[id] = &entry{
		match:      m,
		drivers:    drivers,
		serveTicks: s.serveTicks,
	}

	log.Printf("🏓 Match %s registered (%d active)", id, len(s.matches))
}

// RemoveMatch unregisters a match. Immediate and idempotent; a removal while
// a tick is in progress simply means the next pass skips it.
func (s *Scheduler) RemoveMatch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[id]; !ok {
		return
	}
	delete(s.matches, id)
	log.Printf("🏁 Match %s removed (%d active)", id, len(s.matches))
}

// Subscribe attaches a snapshot sink to a match. Unknown ids are ignored.
func (s *Scheduler) Subscribe(id string, sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.matches[id]; ok {
		e.subs = append(e.subs, sub)
	}
}

// SetInput applies one input flag to a player's paddle in a running match.
func (s *Scheduler) SetInput(id, playerID, key string, pressed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	return e.match.SetInput(playerID, key, pressed)
}

// Pause suspends a match; Resume continues it. Unknown ids are ignored.
func (s *Scheduler) Pause(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.matches[id]; ok {
		e.match.Pause()
	}
}

// Resume continues a paused match.
func (s *Scheduler) Resume(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.matches[id]; ok {
		e.match.Resume()
	}
}

// ActiveCount returns the number of registered matches.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matches)
}

// TickOnce advances every registered match by exactly one tick. Exposed for
// tests that need deterministic stepping without the real-time ticker.
func (s *Scheduler) TickOnce() {
	s.tick()
}

type finished struct {
	id     string
	result Result
}

// tick runs one scheduler pass: serve countdowns, physics updates, win
// checks, snapshot broadcast.
func (s *Scheduler) tick() {
	start := time.Now()
	dt := 1.0 / float64(s.tickRate)

	s.mu.Lock()

	var done []finished
	for id, e := range s.matches {
		m := e.match
		if m.Status() != StatusPlaying {
			continue
		}

		// Serve countdown: the authoritative delay between a goal (or match
		// start) and the ball relaunch lives here, not in the stepper.
		if e.serveTicks > 0 {
			e.serveTicks--
			if e.serveTicks == 0 {
				m.ServeBall(s.randomServeDir())
			}
		}

		scoreBefore := m.Score()

		for _, d := range e.drivers {
			d.Drive(m, dt)
		}
		m.Update(dt)

		// A goal parks the ball; arm the next serve.
		scoreAfter := m.Score()
		if scoreAfter[SideLeft] != scoreBefore[SideLeft] || scoreAfter[SideRight] != scoreBefore[SideRight] {
			e.serveTicks = s.serveTicks
		}

		// Win condition is the scheduler's responsibility, keeping the match
		// a pure physics stepper.
		if leader, pts := m.Leader(); pts >= m.Settings().MaxScore {
			m.Finish()
			done = append(done, finished{
				id: id,
				result: Result{
					Score:    scoreAfter,
					Winner:   leader,
					Sides:    m.Sides(),
					Duration: m.gameTime,
				},
			})
		}

		snap := m.Snapshot()
		for _, sub := range e.subs {
			sub.SendSnapshot(id, snap)
		}
	}

	onFinish := s.OnFinish
	s.mu.Unlock()

	// Completion callbacks run outside the lock: the room manager will call
	// straight back into RemoveMatch.
	if onFinish != nil {
		for _, f := range done {
			onFinish(f.id, f.result)
		}
	}

	if s.TickObserver != nil {
		s.TickObserver(time.Since(start))
	}
}

// randomServeDir picks the serve direction: a random side with a mild
// vertical component. This is the only randomness in the simulation.
func (s *Scheduler) randomServeDir() geom.Vec2 {
	dirX := 1.0
	if s.rng.Intn(2) == 0 {
		dirX = -1.0
	}
	return geom.Vec2{X: dirX, Y: s.rng.Float64() - 0.5}.Normalize()
}
