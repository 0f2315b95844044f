package game

import "pong-arena/internal/geom"

// Ball is the single moving object of a match. Dir is a unit vector; the zero
// vector is the serve state (ball parked at center, waiting for launch).
//
// OldPos is recorded before every move so paddle collision can run a swept
// test over the path actually travelled this tick.
type Ball struct {
	Pos    geom.Vec2
	OldPos geom.Vec2
	Radius float64
	Dir    geom.Vec2
	Speed  float64
}

// NewBall returns a ball parked at the center of the field in serve state.
func NewBall(fieldWidth, fieldHeight float64, s Settings) *Ball {
	center := geom.Vec2{X: fieldWidth / 2, Y: fieldHeight / 2}
	return &Ball{
		Pos:    center,
		OldPos: center,
		Radius: s.BallRadius,
		Speed:  s.BallSpeed,
	}
}

// InServe reports whether the ball is parked waiting for a serve.
func (b *Ball) InServe() bool {
	return b.Dir == (geom.Vec2{})
}

// Advance moves the ball along its direction for dt seconds, recording the
// previous position first.
func (b *Ball) Advance(dt float64) {
	b.OldPos = b.Pos
	b.Pos = b.Pos.Add(b.Dir.Scale(b.Speed * dt))
}

// Launch starts a rally in the given direction. The vector is normalized so
// callers can pass any non-zero direction.
func (b *Ball) Launch(dir geom.Vec2) {
	b.Dir = dir.Normalize()
}

// Reset parks the ball at center with zero velocity and the base speed.
// Called after every goal: the rally speed-up never carries over a serve.
func (b *Ball) Reset(fieldWidth, fieldHeight, baseSpeed float64) {
	center := geom.Vec2{X: fieldWidth / 2, Y: fieldHeight / 2}
	b.Pos = center
	b.OldPos = center
	b.Dir = geom.Vec2{}
	b.Speed = baseSpeed
}

// SpeedUp increases the rally speed by inc, capped at max. Within one rally
// the speed is monotonically non-decreasing.
func (b *Ball) SpeedUp(inc, max float64) {
	b.Speed += inc
	if b.Speed > max {
		b.Speed = max
	}
}
