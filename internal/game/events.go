// internal/game/events.go
package game

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/snatchgame/snatch/internal/models"
)

// Message is the wire envelope for every inbound command and outbound event.
// Data is always a serialized payload string; clients are stateless renderers
// of whatever snapshot the latest event carries.
type Message struct {
	Kind string `json:"kind"`
	Data string `json:"data"`
}

// Outbound event kinds.
const (
	EventInit              = "init"
	EventChat              = "chat"
	EventError             = "error"
	EventNewTile           = "new_tile"
	EventAnagramComplete   = "anagram_complete"
	EventAnagramResult     = "anagram_attempt_result"
	EventChallengeStarted  = "challenge_started"
	EventChallengeResolved = "challenge_resolved"
	EventPlayerJoined      = "player_joined"
	EventGameOver          = "game_over"
	EventPaused            = "paused"
	EventResumed           = "resumed"
)

// Inbound command kinds.
const (
	CmdChat           = "chat"
	CmdAnagramAttempt = "anagram_attempt"
	CmdJoinPlayer     = "join_player"
)

// ChatMessage is a single entry of the player-visible log. MessageType
// distinguishes regular chat ("") from "info", "success", and "error"
// system notices.
type ChatMessage struct {
	Sender      string `json:"sender"`
	Text        string `json:"message"`
	MessageType string `json:"message_type,omitempty"`
}

func systemChat(text, messageType string) ChatMessage {
	return ChatMessage{Sender: "System", Text: text, MessageType: messageType}
}

// Snapshot is the full client-visible state. Every major transition emits a
// complete replacement, never a diff.
type Snapshot struct {
	GameState Details        `json:"game_state"`
	Pot       []string       `json:"pot"`
	Boards    []*PlayerBoard `json:"players_boards"`
	Chat      []ChatMessage  `json:"chat"`
}

// Details is the directory-level view of a game: identity, lifecycle status,
// and roster with scores. The lobby serializes these for game listings.
type Details struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Kind    Kind            `json:"kind"`
	Status  string          `json:"current_state"`
	Players []models.Player `json:"players"`
}

// envelope wraps a payload into a Message, marshaling the payload to the
// Data string. Marshal failures are logged and produce an empty payload
// rather than a dropped event.
func envelope(kind string, payload interface{}) Message {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("WARNING: failed to marshal %s payload: %v", kind, err)
		return Message{Kind: kind, Data: "{}"}
	}
	return Message{Kind: kind, Data: string(data)}
}

// Encode serializes the full envelope for the transport layer.
func (m Message) Encode() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("WARNING: failed to marshal %s message: %v", m.Kind, err)
		return []byte("{}")
	}
	return data
}
