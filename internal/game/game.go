// internal/game/game.go
package game

// Kind tags the closed set of game variants this server can host. Dispatch
// is always through the Game interface; there is no open-ended registration.
type Kind string

const (
	// KindAnagrams is the word-steal game implemented by AnagramsGame.
	KindAnagrams Kind = "anagrams"
	// KindMatch is a simpler turn-based matching game that shares the
	// broadcast plumbing. It is not hosted by this server.
	KindMatch Kind = "match"
)

// Game is the uniform capability surface the transport and directory layers
// use: deliver a raw command, take a full-state snapshot, inspect lifecycle.
type Game interface {
	// Details returns identity, status and roster for directory listings.
	Details() Details
	// Status returns the lifecycle status string
	// (in_progress, paused, challenge, game_over).
	Status() string
	// HandleMessage consumes one transport-delivered command envelope.
	HandleMessage(txt string)
	// Snapshot produces a full-state event of the given kind.
	Snapshot(kind string) Message
	// Stop releases background resources (the tile dealer). Called when the
	// directory drops the game.
	Stop()
}

// Lifecycle status values.
const (
	StatusInProgress = "in_progress"
	StatusPaused     = "paused"
	StatusChallenge  = "challenge"
	StatusGameOver   = "game_over"
)
