package game

import "pong-arena/internal/geom"

// Side identifies the two scoring sides of the play field.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Settings are the per-match tunables a room host can customize.
// Values are in world units (the field is 800x450 by default) and
// units-per-second for speeds.
type Settings struct {
	PaddleWidth       float64 `json:"paddleWidth"`
	PaddleHeight      float64 `json:"paddleHeight"`
	PaddleSpeed       float64 `json:"paddleSpeed"`
	BallRadius        float64 `json:"ballRadius"`
	BallSpeed         float64 `json:"ballSpeed"`
	BallSpeedIncrease float64 `json:"ballSpeedIncrease"`
	MaxBallSpeed      float64 `json:"maxBallSpeed"`
	MaxScore          int     `json:"maxScore"`
}

// DefaultSettings returns the standard match settings.
func DefaultSettings() Settings {
	return Settings{
		PaddleWidth:       12,
		PaddleHeight:      90,
		PaddleSpeed:       420,
		BallRadius:        8,
		BallSpeed:         360,
		BallSpeedIncrease: 30,
		MaxBallSpeed:      850,
		MaxScore:          5,
	}
}

// Normalized returns a copy with every field clamped to sane bounds.
// Client-supplied settings go through this before a match is built, so a
// hostile payload cannot produce a degenerate simulation (zero-size paddles,
// absurd ball speed, unreachable max score).
func (s Settings) Normalized() Settings {
	def := DefaultSettings()

	if s.PaddleWidth <= 0 {
		s.PaddleWidth = def.PaddleWidth
	}
	s.PaddleWidth = geom.Clamp(s.PaddleWidth, 4, 60)

	if s.PaddleHeight <= 0 {
		s.PaddleHeight = def.PaddleHeight
	}
	s.PaddleHeight = geom.Clamp(s.PaddleHeight, 20, 300)

	if s.PaddleSpeed <= 0 {
		s.PaddleSpeed = def.PaddleSpeed
	}
	s.PaddleSpeed = geom.Clamp(s.PaddleSpeed, 60, 1200)

	if s.BallRadius <= 0 {
		s.BallRadius = def.BallRadius
	}
	s.BallRadius = geom.Clamp(s.BallRadius, 2, 40)

	if s.BallSpeed <= 0 {
		s.BallSpeed = def.BallSpeed
	}
	s.BallSpeed = geom.Clamp(s.BallSpeed, 60, 1200)

	if s.BallSpeedIncrease < 0 {
		s.BallSpeedIncrease = def.BallSpeedIncrease
	}
	s.BallSpeedIncrease = geom.Clamp(s.BallSpeedIncrease, 0, 200)

	if s.MaxBallSpeed < s.BallSpeed {
		s.MaxBallSpeed = def.MaxBallSpeed
	}
	s.MaxBallSpeed = geom.Clamp(s.MaxBallSpeed, s.BallSpeed, 2000)

	if s.MaxScore <= 0 {
		s.MaxScore = def.MaxScore
	}
	if s.MaxScore > 50 {
		s.MaxScore = 50
	}

	return s
}
