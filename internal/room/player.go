package room

// Sink delivers one server-originated event to a single connection.
// Implementations must never block and must swallow writes to closed
// connections; the room layer treats delivery as best effort.
type Sink interface {
	Send(event string, payload any)
}

// NopSink discards everything. Used for synthetic seats (AI opponents) and
// in tests.
type NopSink struct{}

// Send discards the event.
func (NopSink) Send(string, any) {}

// Player is a participant reference inside a room. The id is an opaque
// identifier already validated upstream; the core never sees credentials and
// never persists players.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"isReady"`

	conn Sink
}

// NewPlayer builds a participant reference bound to its connection.
func NewPlayer(id, name string, conn Sink) *Player {
	if conn == nil {
		conn = NopSink{}
	}
	return &Player{ID: id, Name: name, conn: conn}
}

// Send forwards an event to the player's connection.
func (p *Player) Send(event string, payload any) {
	p.conn.Send(event, payload)
}
