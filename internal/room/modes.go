package room

// Mode selects a room variant. All per-mode behavior is driven by the rules
// table below: adding a new mode is a data change, not a control-flow change.
type Mode string

const (
	ModeClassic     Mode = "classic"     // 1v1, results tracked
	ModeMultiplayer Mode = "multiplayer" // 2v2, casual
	ModeLocal       Mode = "local"       // one connection drives both paddles
	ModeAI          Mode = "ai"          // one human vs a synthetic bot seat
	ModeTournament  Mode = "tournament"  // single-elimination bracket, tracked
)

// AISettings tunes the synthetic opponent of an AI room.
type AISettings struct {
	// Difficulty selects the bot's reaction speed: easy, normal or hard.
	// Empty means normal.
	Difficulty string `json:"difficulty,omitempty"`
}

// modeRules captures everything that differs between room variants.
type modeRules struct {
	maxPlayers int  // connected players; 0 = taken from tournament settings
	tracked    bool // results forwarded to the profile collaborator
	withAI     bool // a bot seat fills the right side at match start
	local      bool // the lone connection drives both paddles
}

var allModes = map[Mode]modeRules{
	ModeClassic:     {maxPlayers: 2, tracked: true},
	ModeMultiplayer: {maxPlayers: 4},
	ModeLocal:       {maxPlayers: 1, local: true},
	ModeAI:          {maxPlayers: 1, withAI: true},
	ModeTournament:  {tracked: true},
}

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	_, ok := allModes[m]
	return ok
}

// Tracked reports whether finished rooms of this mode notify the profile
// service.
func (m Mode) Tracked() bool {
	return allModes[m].tracked
}

func (m Mode) rules() modeRules {
	return allModes[m]
}
