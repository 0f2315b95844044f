package ai

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"pong-arena/internal/game"
)

// Controller drives one AI seat in a match. It implements game.InputDriver:
// the scheduler calls Drive under its lock once per tick, and Drive must stay
// cheap and non-blocking. The decision service round-trip therefore happens
// on its own goroutine; Drive only reads the cached target.
type Controller struct {
	playerID    string
	decider     Decider
	sampleEvery float64

	sinceSample float64
	inFlight    atomic.Bool

	mu        sync.Mutex
	targetY   float64
	hasTarget bool
}

// SampleInterval maps a difficulty name onto the decision refresh interval
// in seconds. Harder bots re-aim more often; unknown or empty names get the
// base interval.
func SampleInterval(difficulty string, base float64) float64 {
	if base <= 0 {
		base = 1.0
	}
	switch difficulty {
	case "easy":
		return base * 2
	case "hard":
		return base / 4
	default:
		return base
	}
}

// NewController creates a controller for the given seat. sampleEvery is the
// interval in seconds between decision refreshes.
func NewController(playerID string, d Decider, sampleEvery float64) *Controller {
	if sampleEvery <= 0 {
		sampleEvery = 1.0
	}
	return &Controller{
		playerID:    playerID,
		decider:     d,
		sampleEvery: sampleEvery,
		// Refresh immediately on the first tick.
		sinceSample: sampleEvery,
	}
}

// Drive is called by the scheduler each tick. It kicks off an asynchronous
// decision refresh when due and steers the paddle toward the cached target.
func (c *Controller) Drive(m *game.Match, dt float64) {
	c.sinceSample += dt
	if c.sinceSample >= c.sampleEvery && c.inFlight.CompareAndSwap(false, true) {
		c.sinceSample = 0
		obs := c.observe(m)
		go c.refresh(obs)
	}

	paddle, ok := m.Paddle(c.playerID)
	if !ok {
		return
	}

	c.mu.Lock()
	target, has := c.targetY, c.hasTarget
	c.mu.Unlock()
	if !has {
		// Nothing decided yet: hold position.
		_ = m.SetInput(c.playerID, "up", false)
		_ = m.SetInput(c.playerID, "down", false)
		return
	}

	// Deadzone of a quarter paddle keeps the bot from jittering around the
	// target.
	center := paddle.Y + paddle.Height/2
	deadzone := paddle.Height / 4

	up := target < center-deadzone
	down := target > center+deadzone
	_ = m.SetInput(c.playerID, "up", up)
	_ = m.SetInput(c.playerID, "down", down)
}

func (c *Controller) observe(m *game.Match) Observation {
	w, h := m.Area()
	ball := m.BallState()
	obs := Observation{
		BallX:       ball.X,
		BallY:       ball.Y,
		BallDirX:    ball.DirX,
		BallDirY:    ball.DirY,
		BallSpeed:   ball.Speed,
		FieldWidth:  w,
		FieldHeight: h,
	}
	if p, ok := m.Paddle(c.playerID); ok {
		obs.PaddleY = p.Y
		obs.PaddleHeight = p.Height
	}
	return obs
}

// refresh performs the decision round-trip off the tick path. A failed call
// keeps the previous target: best effort, never fatal.
func (c *Controller) refresh(obs Observation) {
	defer c.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	target, err := c.decider.TargetY(ctx, obs)
	if err != nil {
		log.Printf("⚠️ AI decision failed for %s: %v", c.playerID, err)
		return
	}

	c.mu.Lock()
	c.targetY = target
	c.hasTarget = true
	c.mu.Unlock()
}
