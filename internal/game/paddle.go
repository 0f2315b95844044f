package game

import "pong-arena/internal/geom"

// Paddle is one player's mutable physical object. Position is the top-left
// corner. The paddle only moves vertically, clamped to [MinY, MaxY].
//
// Paddles are owned by their Match and are not goroutine-safe on their own.
type Paddle struct {
	PlayerID string
	Side     Side
	Pos      geom.Vec2
	Width    float64
	Height   float64
	Speed    float64

	// Vertical movement bounds. Full-field paddles use [0, fieldHeight];
	// in four-player matches each side's pair splits the field in halves.
	MinY float64
	MaxY float64

	// Current input flags, set by player key presses or the AI controller.
	Up   bool
	Down bool
}

// Update advances the paddle by one tick of held input, clamped to its bounds.
func (p *Paddle) Update(dt float64) {
	dir := 0.0
	if p.Up {
		dir -= 1
	}
	if p.Down {
		dir += 1
	}
	if dir == 0 {
		return
	}

	p.Pos.Y = geom.Clamp(p.Pos.Y+dir*p.Speed*dt, p.MinY, p.MaxY-p.Height)
}

// Rect returns the paddle's bounding box for collision tests.
func (p *Paddle) Rect() geom.Rect {
	return geom.Rect{X: p.Pos.X, Y: p.Pos.Y, W: p.Width, H: p.Height}
}

// CenterY returns the vertical center of the paddle face.
func (p *Paddle) CenterY() float64 {
	return p.Pos.Y + p.Height/2
}
