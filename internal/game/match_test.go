package game_test

import (
	"math"
	"reflect"
	"testing"

	"pong-arena/internal/game"
	"pong-arena/internal/geom"
)

const (
	fieldW = 800.0
	fieldH = 450.0
	dt     = 1.0 / 60.0
)

func newClassicMatch() *game.Match {
	return game.NewMatch(fieldW, fieldH, game.DefaultSettings(), []game.Seat{
		{PlayerID: "a", Side: game.SideLeft},
		{PlayerID: "b", Side: game.SideRight},
	})
}

func TestNewMatchPaddlePlacement(t *testing.T) {
	m := newClassicMatch()

	left, ok := m.Paddle("a")
	if !ok {
		t.Fatal("left paddle missing")
	}
	right, ok := m.Paddle("b")
	if !ok {
		t.Fatal("right paddle missing")
	}

	if left.X != 20 {
		t.Errorf("left paddle X = %v, want 20", left.X)
	}
	wantRightX := fieldW - 20 - left.Width
	if right.X != wantRightX {
		t.Errorf("right paddle X = %v, want %v", right.X, wantRightX)
	}

	// Both start vertically centered.
	wantY := (fieldH - left.Height) / 2
	if left.Y != wantY || right.Y != wantY {
		t.Errorf("paddle Y = %v / %v, want %v", left.Y, right.Y, wantY)
	}
}

// Four-player matches split each side's field in halves: the first seat of a
// side gets the top half, the second the bottom.
func TestFourPlayerPaddleBounds(t *testing.T) {
	m := game.NewMatch(fieldW, fieldH, game.DefaultSettings(), []game.Seat{
		{PlayerID: "l1", Side: game.SideLeft},
		{PlayerID: "l2", Side: game.SideLeft},
		{PlayerID: "r1", Side: game.SideRight},
		{PlayerID: "r2", Side: game.SideRight},
	})
	m.Start()

	// Drive the top-half paddle down for a long time: it must stop at the
	// half line, not the field bottom.
	if err := m.SetInput("l1", "down", true); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 600; i++ {
		m.Update(dt)
	}

	p, _ := m.Paddle("l1")
	wantMax := fieldH/2 - p.Height
	if p.Y != wantMax {
		t.Errorf("top-half paddle stopped at Y=%v, want %v", p.Y, wantMax)
	}

	// And the bottom-half paddle can never cross above the half line.
	if err := m.SetInput("l2", "up", true); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 600; i++ {
		m.Update(dt)
	}
	p2, _ := m.Paddle("l2")
	if p2.Y != fieldH/2 {
		t.Errorf("bottom-half paddle stopped at Y=%v, want %v", p2.Y, fieldH/2)
	}
}

func TestSetInputValidation(t *testing.T) {
	m := newClassicMatch()

	if err := m.SetInput("ghost", "up", true); err == nil {
		t.Error("input for unseated player should fail")
	}
	if err := m.SetInput("a", "left", true); err == nil {
		t.Error("unknown key should fail")
	}
	if err := m.SetInput("a", "up", true); err != nil {
		t.Errorf("valid input failed: %v", err)
	}
}

func TestPaddleClampsToField(t *testing.T) {
	m := newClassicMatch()
	m.Start()

	m.SetInput("a", "up", true)
	for i := 0; i < 600; i++ {
		m.Update(dt)
	}
	p, _ := m.Paddle("a")
	if p.Y != 0 {
		t.Errorf("paddle Y = %v after holding up, want 0", p.Y)
	}

	m.SetInput("a", "up", false)
	m.SetInput("a", "down", true)
	for i := 0; i < 600; i++ {
		m.Update(dt)
	}
	p, _ = m.Paddle("a")
	if p.Y != fieldH-p.Height {
		t.Errorf("paddle Y = %v after holding down, want %v", p.Y, fieldH-p.Height)
	}
}

func TestBallParkedUntilServe(t *testing.T) {
	m := newClassicMatch()
	m.Start()

	if !m.BallInServe() {
		t.Fatal("new match ball should be in serve state")
	}

	for i := 0; i < 30; i++ {
		m.Update(dt)
	}
	ball := m.BallState()
	if ball.X != fieldW/2 || ball.Y != fieldH/2 {
		t.Errorf("parked ball moved to (%v, %v)", ball.X, ball.Y)
	}

	m.ServeBall(geom.Vec2{X: 1, Y: 0})
	if m.BallInServe() {
		t.Fatal("served ball still parked")
	}
	m.Update(dt)
	if got := m.BallState().X; got <= fieldW/2 {
		t.Errorf("ball X = %v after serve, want > %v", got, fieldW/2)
	}
}

// A second serve while the ball is in play must be ignored: serving is only
// valid from the parked state.
func TestServeWhileInPlayIgnored(t *testing.T) {
	m := newClassicMatch()
	m.Start()

	m.ServeBall(geom.Vec2{X: -1, Y: 0})
	m.ServeBall(geom.Vec2{X: 1, Y: 0})

	if got := m.BallState().DirX; got != -1 {
		t.Errorf("ball DirX = %v, want -1 (first serve wins)", got)
	}
}

func TestGoalScoresAndResets(t *testing.T) {
	// No left paddle: a leftward serve must cross the left border.
	m := game.NewMatch(fieldW, fieldH, game.DefaultSettings(), []game.Seat{
		{PlayerID: "b", Side: game.SideRight},
	})
	m.Start()
	m.ServeBall(geom.Vec2{X: -1, Y: 0})

	var goal bool
	for i := 0; i < 1000 && !goal; i++ {
		m.Update(dt)
		goal = m.Score()[game.SideRight] == 1
	}

	if !goal {
		t.Fatal("leftward ball never scored for the right side")
	}
	if !m.BallInServe() {
		t.Error("ball not parked after goal")
	}
	ball := m.BallState()
	if ball.X != fieldW/2 || ball.Y != fieldH/2 {
		t.Errorf("ball reset to (%v, %v), want field center", ball.X, ball.Y)
	}
	if s := m.Score(); s[game.SideLeft] != 0 {
		t.Errorf("left score = %d, want 0", s[game.SideLeft])
	}
}

func TestGoalEmitsBorderHit(t *testing.T) {
	m := game.NewMatch(fieldW, fieldH, game.DefaultSettings(), []game.Seat{
		{PlayerID: "b", Side: game.SideRight},
	})

	var hits []game.BorderHit
	m.Events().On(game.EventBorderHit, func(p any) {
		hits = append(hits, p.(game.BorderHit))
	})

	m.Start()
	m.ServeBall(geom.Vec2{X: -1, Y: 0})
	for i := 0; i < 1000 && len(hits) == 0; i++ {
		m.Update(dt)
	}

	if len(hits) == 0 {
		t.Fatal("no border hit emitted")
	}
	if hits[0].Side != game.BorderLeft {
		t.Errorf("border = %s, want left", hits[0].Side)
	}
	if hits[0].Score[game.SideRight] != 1 {
		t.Errorf("payload score = %v, want right=1", hits[0].Score)
	}
}

func TestWallBounceReflectsVertically(t *testing.T) {
	m := game.NewMatch(fieldW, fieldH, game.DefaultSettings(), nil)

	var top bool
	m.Events().On(game.EventBorderHit, func(p any) {
		if p.(game.BorderHit).Side == game.BorderTop {
			top = true
		}
	})

	m.Start()
	m.ServeBall(geom.Vec2{X: 0.3, Y: -1})
	for i := 0; i < 1000 && !top; i++ {
		m.Update(dt)
	}

	if !top {
		t.Fatal("ball never reached the top wall")
	}
	if got := m.BallState().DirY; got <= 0 {
		t.Errorf("DirY = %v after top bounce, want > 0", got)
	}
}

// An off-center paddle hit must reflect the ball back with a vertical
// component toward the ball's offset from the paddle center, and speed the
// rally up by the configured increment.
func TestPaddleReflectionAndSpeedUp(t *testing.T) {
	s := game.DefaultSettings()
	m := game.NewMatch(fieldW, fieldH, s, []game.Seat{
		{PlayerID: "a", Side: game.SideLeft},
	})
	m.Start()

	// Nudge the paddle down a little so the centered ball strikes its upper
	// half.
	m.SetInput("a", "down", true)
	for i := 0; i < 3; i++ {
		m.Update(dt)
	}
	m.SetInput("a", "down", false)

	m.ServeBall(geom.Vec2{X: -1, Y: 0})

	var reflected bool
	for i := 0; i < 200 && !reflected; i++ {
		m.Update(dt)
		reflected = m.BallState().DirX > 0
	}

	if !reflected {
		t.Fatal("ball was never reflected by the paddle")
	}
	ball := m.BallState()
	if ball.DirY >= 0 {
		t.Errorf("DirY = %v after upper-half hit, want < 0", ball.DirY)
	}
	if want := s.BallSpeed + s.BallSpeedIncrease; ball.Speed != want {
		t.Errorf("ball speed = %v after reflection, want %v", ball.Speed, want)
	}
	if math.Abs(math.Hypot(ball.DirX, ball.DirY)-1) > 1e-9 {
		t.Errorf("reflected direction not unit length: (%v, %v)", ball.DirX, ball.DirY)
	}
}

// With fixed serves and identical inputs the simulation must be
// bit-reproducible.
func TestSimulationDeterminism(t *testing.T) {
	run := func() game.Snapshot {
		m := newClassicMatch()
		m.Start()
		m.ServeBall(geom.Vec2{X: -0.8, Y: 0.35})
		m.SetInput("a", "down", true)
		m.SetInput("b", "up", true)
		for i := 0; i < 300; i++ {
			m.Update(dt)
		}
		return m.Snapshot()
	}

	first := run()
	second := run()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical runs diverged:\n%+v\n%+v", first, second)
	}
}

func TestLifecycleGates(t *testing.T) {
	m := newClassicMatch()

	// Waiting: updates are no-ops.
	m.Update(dt)
	if m.Snapshot().Tick != 0 {
		t.Error("waiting match advanced")
	}

	m.Start()
	m.Update(dt)
	if m.Snapshot().Tick != 1 {
		t.Error("playing match did not advance")
	}

	m.Pause()
	m.Update(dt)
	if m.Snapshot().Tick != 1 {
		t.Error("paused match advanced")
	}

	m.Resume()
	m.Update(dt)
	if m.Snapshot().Tick != 2 {
		t.Error("resumed match did not advance")
	}

	m.Finish()
	m.Update(dt)
	if m.Snapshot().Tick != 2 {
		t.Error("finished match advanced")
	}
	if m.Status() != game.StatusFinished {
		t.Errorf("status = %s, want finished", m.Status())
	}
}

func TestSettingsNormalization(t *testing.T) {
	hostile := game.Settings{
		PaddleHeight: -5,
		BallSpeed:    1e9,
		MaxScore:     10000,
	}
	s := hostile.Normalized()

	def := game.DefaultSettings()
	if s.PaddleHeight != def.PaddleHeight {
		t.Errorf("PaddleHeight = %v, want default %v", s.PaddleHeight, def.PaddleHeight)
	}
	if s.BallSpeed > 1200 {
		t.Errorf("BallSpeed = %v, want clamped", s.BallSpeed)
	}
	if s.MaxScore > 50 {
		t.Errorf("MaxScore = %v, want clamped to 50", s.MaxScore)
	}
	if s.MaxBallSpeed < s.BallSpeed {
		t.Errorf("MaxBallSpeed %v below BallSpeed %v", s.MaxBallSpeed, s.BallSpeed)
	}
}
