package game

// Snapshot is an immutable, serializable copy of match state broadcast to
// clients every tick. Uses value types only so a snapshot can outlive the
// tick that produced it.
type Snapshot struct {
	Status   Status           `json:"status"`
	Width    float64          `json:"width"`
	Height   float64          `json:"height"`
	Ball     BallSnapshot     `json:"ball"`
	Paddles  []PaddleSnapshot `json:"paddles"`
	Score    map[Side]int     `json:"score"`
	GameTime float64          `json:"gameTime"`
	Tick     int64            `json:"tick"`
}

// BallSnapshot is the ball portion of a Snapshot.
type BallSnapshot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	DirX   float64 `json:"dirX"`
	DirY   float64 `json:"dirY"`
	Speed  float64 `json:"speed"`
}

// PaddleSnapshot is one paddle's portion of a Snapshot.
type PaddleSnapshot struct {
	PlayerID string  `json:"playerId"`
	Side     Side    `json:"side"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// Snapshot produces the broadcast copy of the current state.
func (m *Match) Snapshot() Snapshot {
	paddles := make([]PaddleSnapshot, 0, len(m.order))
	for _, id := range m.order {
		paddles = append(paddles, snapshotPaddle(m.paddles[id]))
	}

	return Snapshot{
		Status:   m.status,
		Width:    m.width,
		Height:   m.height,
		Ball:     snapshotBall(m.ball),
		Paddles:  paddles,
		Score:    m.Score(),
		GameTime: m.gameTime,
		Tick:     m.tick,
	}
}

func snapshotBall(b *Ball) BallSnapshot {
	return BallSnapshot{
		X:      b.Pos.X,
		Y:      b.Pos.Y,
		Radius: b.Radius,
		DirX:   b.Dir.X,
		DirY:   b.Dir.Y,
		Speed:  b.Speed,
	}
}

func snapshotPaddle(p *Paddle) PaddleSnapshot {
	return PaddleSnapshot{
		PlayerID: p.PlayerID,
		Side:     p.Side,
		X:        p.Pos.X,
		Y:        p.Pos.Y,
		Width:    p.Width,
		Height:   p.Height,
	}
}
