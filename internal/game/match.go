package game

import (
	"fmt"

	"pong-arena/internal/events"
	"pong-arena/internal/geom"
)

// Status is the match simulation lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// Border tags the side of the field the ball crossed.
// Top/bottom are wall bounces, left/right are goals.
type Border string

const (
	BorderTop    Border = "top"
	BorderBottom Border = "bottom"
	BorderLeft   Border = "left"
	BorderRight  Border = "right"
)

// EventBorderHit is emitted on the match emitter whenever the ball crosses a
// field border. Payload is a BorderHit.
const EventBorderHit = "borderHit"

// BorderHit is the payload of EventBorderHit.
type BorderHit struct {
	Side  Border
	Score map[Side]int // score after the hit (copied; goals only mutate it)
}

// Seat assigns one player id to a scoring side. Seat order decides paddle
// stacking in four-player matches: the first seat of a side gets the top half.
type Seat struct {
	PlayerID string
	Side     Side
}

// paddleMargin is the gap between a paddle face and its side wall.
const paddleMargin = 20.0

// maxDeflect limits the vertical component imparted by an off-center paddle
// hit, so a rally can never go fully vertical.
const maxDeflect = 0.75

// Match owns one match's authoritative physics state. It is a pure physics
// stepper: Update advances paddles and the ball, detects collisions and goals,
// and emits borderHit events. It neither schedules serves nor checks the
// win condition; both belong to the Scheduler.
//
// A Match is not goroutine-safe. The Scheduler owns it and serializes all
// access; ticks within one match are strictly sequential.
type Match struct {
	status   Status
	width    float64
	height   float64
	settings Settings

	ball    *Ball
	paddles map[string]*Paddle
	order   []string // seat order, for stable snapshots
	score   map[Side]int

	gameTime float64
	tick     int64

	emitter *events.Emitter
}

// NewMatch builds a match for the given field and seats. Settings are
// normalized defensively; seats must be non-empty with at least one per side
// for a playable match (the caller validates rosters, not the stepper).
func NewMatch(width, height float64, s Settings, seats []Seat) *Match {
	s = s.Normalized()

	m := &Match{
		status:   StatusWaiting,
		width:    width,
		height:   height,
		settings: s,
		ball:     NewBall(width, height, s),
		paddles:  make(map[string]*Paddle, len(seats)),
		score:    map[Side]int{SideLeft: 0, SideRight: 0},
		emitter:  events.NewEmitter(),
	}

	perSide := map[Side]int{}
	for _, seat := range seats {
		perSide[seat.Side]++
	}
	placed := map[Side]int{}

	for _, seat := range seats {
		x := paddleMargin
		if seat.Side == SideRight {
			x = width - paddleMargin - s.PaddleWidth
		}

		// Full-field bounds by default; stacked sides split in halves.
		minY, maxY := 0.0, height
		if perSide[seat.Side] > 1 {
			half := height / 2
			if placed[seat.Side] == 0 {
				maxY = half
			} else {
				minY = half
			}
		}
		placed[seat.Side]++

		m.paddles[seat.PlayerID] = &Paddle{
			PlayerID: seat.PlayerID,
			Side:     seat.Side,
			Pos:      geom.Vec2{X: x, Y: (minY + maxY - s.PaddleHeight) / 2},
			Width:    s.PaddleWidth,
			Height:   s.PaddleHeight,
			Speed:    s.PaddleSpeed,
			MinY:     minY,
			MaxY:     maxY,
		}
		m.order = append(m.order, seat.PlayerID)
	}

	return m
}

// Events exposes the match emitter so the scheduler (and tests) can observe
// border hits.
func (m *Match) Events() *events.Emitter { return m.emitter }

// Status returns the current lifecycle state.
func (m *Match) Status() Status { return m.status }

// Settings returns the normalized match settings.
func (m *Match) Settings() Settings { return m.settings }

// Area returns the play field dimensions.
func (m *Match) Area() (width, height float64) { return m.width, m.height }

// Score returns a copy of the current score.
func (m *Match) Score() map[Side]int {
	return map[Side]int{SideLeft: m.score[SideLeft], SideRight: m.score[SideRight]}
}

// Start moves the match from waiting to playing.
func (m *Match) Start() {
	if m.status == StatusWaiting {
		m.status = StatusPlaying
	}
}

// Pause suspends a playing match.
func (m *Match) Pause() {
	if m.status == StatusPlaying {
		m.status = StatusPaused
	}
}

// Resume continues a paused match.
func (m *Match) Resume() {
	if m.status == StatusPaused {
		m.status = StatusPlaying
	}
}

// Finish terminally stops the match. Idempotent.
func (m *Match) Finish() {
	m.status = StatusFinished
}

// SetInput sets one input flag for the given player's paddle.
// Key must be "up" or "down".
func (m *Match) SetInput(playerID, key string, pressed bool) error {
	p, ok := m.paddles[playerID]
	if !ok {
		return fmt.Errorf("no paddle for player %s", playerID)
	}

	switch key {
	case "up":
		p.Up = pressed
	case "down":
		p.Down = pressed
	default:
		return fmt.Errorf("unknown input key %q", key)
	}
	return nil
}

// ServeBall launches a parked ball in the given direction. No-op when the
// ball is already in play; tests use a fixed vector here to keep the
// simulation bit-reproducible.
func (m *Match) ServeBall(dir geom.Vec2) {
	if m.ball.InServe() {
		m.ball.Launch(dir)
	}
}

// BallInServe reports whether the ball is parked waiting for a serve.
func (m *Match) BallInServe() bool { return m.ball.InServe() }

// Update advances the simulation by dt seconds. No-op unless playing.
func (m *Match) Update(dt float64) {
	if m.status != StatusPlaying {
		return
	}

	m.tick++
	m.gameTime += dt

	for _, id := range m.order {
		m.paddles[id].Update(dt)
	}

	if m.ball.InServe() {
		return
	}

	m.ball.Advance(dt)
	m.collidePaddles()
	m.collideBorders()
}

// collidePaddles runs the swept test against every paddle and reflects the
// ball off the first hit. A paddle only reflects the ball travelling toward
// its own side, so the ball cannot get captured inside a paddle.
func (m *Match) collidePaddles() {
	for _, id := range m.order {
		p := m.paddles[id]

		toward := (p.Side == SideLeft && m.ball.Dir.X < 0) ||
			(p.Side == SideRight && m.ball.Dir.X > 0)
		if !toward {
			continue
		}

		if _, hit := geom.SweptCircleRect(m.ball.OldPos, m.ball.Pos, m.ball.Radius, p.Rect()); !hit {
			continue
		}

		// Horizontal reflection away from the paddle's side.
		dirX := 1.0
		faceX := p.Pos.X + p.Width + m.ball.Radius
		if p.Side == SideRight {
			dirX = -1.0
			faceX = p.Pos.X - m.ball.Radius
		}

		// Vertical deflection from the hit offset: center hits go straight,
		// edge hits go steep.
		offset := geom.Clamp((m.ball.Pos.Y-p.CenterY())/(p.Height/2), -1, 1)

		m.ball.Dir = geom.Vec2{X: dirX, Y: offset * maxDeflect}.Normalize()
		m.ball.Pos.X = faceX
		m.ball.SpeedUp(m.settings.BallSpeedIncrease, m.settings.MaxBallSpeed)
		return
	}
}

// collideBorders bounces the ball off the top/bottom walls and scores goals
// on left/right crossings. A goal resets the ball to center in serve state;
// the scheduler decides when the next serve happens.
func (m *Match) collideBorders() {
	b := m.ball

	if b.Pos.Y-b.Radius < 0 {
		b.Pos.Y = b.Radius
		if b.Dir.Y < 0 {
			b.Dir.Y = -b.Dir.Y
		}
		m.emitBorder(BorderTop)
	} else if b.Pos.Y+b.Radius > m.height {
		b.Pos.Y = m.height - b.Radius
		if b.Dir.Y > 0 {
			b.Dir.Y = -b.Dir.Y
		}
		m.emitBorder(BorderBottom)
	}

	if b.Pos.X < 0 {
		m.score[SideRight]++
		b.Reset(m.width, m.height, m.settings.BallSpeed)
		m.emitBorder(BorderLeft)
	} else if b.Pos.X > m.width {
		m.score[SideLeft]++
		b.Reset(m.width, m.height, m.settings.BallSpeed)
		m.emitBorder(BorderRight)
	}
}

func (m *Match) emitBorder(side Border) {
	m.emitter.Emit(EventBorderHit, BorderHit{Side: side, Score: m.Score()})
}

// Leader returns the side with the higher score and that score.
func (m *Match) Leader() (Side, int) {
	if m.score[SideRight] > m.score[SideLeft] {
		return SideRight, m.score[SideRight]
	}
	return SideLeft, m.score[SideLeft]
}

// Sides returns each seated player's scoring side.
func (m *Match) Sides() map[string]Side {
	out := make(map[string]Side, len(m.paddles))
	for id, p := range m.paddles {
		out[id] = p.Side
	}
	return out
}

// Paddle returns a snapshot of one player's paddle.
func (m *Match) Paddle(playerID string) (PaddleSnapshot, bool) {
	p, ok := m.paddles[playerID]
	if !ok {
		return PaddleSnapshot{}, false
	}
	return snapshotPaddle(p), true
}

// BallState returns a snapshot of the ball.
func (m *Match) BallState() BallSnapshot {
	return snapshotBall(m.ball)
}
