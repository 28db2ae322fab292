// internal/game/commands.go
package game

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Inbound payload shapes. Clients may identify themselves by id or by display
// name; id wins when both are present.
type chatPayload struct {
	Sender string `json:"sender"`
	Text   string `json:"message"`
}

type attemptPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Word       string `json:"word"`
}

type joinPayload struct {
	Name string `json:"name"`
}

type attemptResult struct {
	Word    string `json:"word"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// HandleMessage decodes one wire envelope and dispatches it. Malformed input
// never panics the game; it produces an error event and is otherwise ignored.
func (g *AnagramsGame) HandleMessage(txt string) {
	var msg Message
	if err := json.Unmarshal([]byte(txt), &msg); err != nil {
		g.emit(envelope(EventError, map[string]string{"error": "malformed message"}))
		return
	}

	switch msg.Kind {
	case CmdChat:
		g.handleChat(msg.Data)
	case CmdAnagramAttempt:
		g.handleAttempt(msg.Data)
	case CmdJoinPlayer:
		g.handleJoin(msg.Data)
	default:
		g.emit(envelope(EventError, map[string]string{
			"error": fmt.Sprintf("unknown message kind %q", msg.Kind),
		}))
	}
}

// handleChat relays chat, intercepting slash commands. Commands are consumed:
// they act on the game and never appear in the chat log as regular messages.
func (g *AnagramsGame) handleChat(data string) {
	var p chatPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		g.emit(envelope(EventError, map[string]string{"error": "malformed chat payload"}))
		return
	}

	switch strings.TrimSpace(p.Text) {
	case "/gameover":
		g.EndGame()
		return
	case "/pause":
		g.TogglePause()
		return
	case "/challenge":
		g.handleVote(p.Sender, true)
		return
	case "/maintain":
		g.handleVote(p.Sender, false)
		return
	}

	g.broadcastChat(ChatMessage{Sender: p.Sender, Text: p.Text})
	g.logActionByName(p.Sender, "chat", map[string]interface{}{"message": p.Text})
}

// handleVote resolves the sender and either starts a challenge or casts a
// vote into the active one. /challenge doubles as both verbs: it opens the
// dispute when none is active.
func (g *AnagramsGame) handleVote(sender string, challenge bool) {
	player, ok := g.playerByName(sender)
	if !ok {
		g.notifyError(ErrUnknownPlayer.Error())
		return
	}

	var err error
	if challenge && !g.ChallengeActive() {
		err = g.StartChallenge(player.ID)
	} else {
		err = g.VoteChallenge(player.ID, challenge)
	}
	if err != nil {
		g.notifyError(err.Error())
	}
}

// handleAttempt runs a word claim and reports the outcome. Failures surface
// two ways: a System chat notice for everyone, and a targeted
// anagram_attempt_result event carrying the machine-readable reason.
func (g *AnagramsGame) handleAttempt(data string) {
	var p attemptPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		g.emit(envelope(EventError, map[string]string{"error": "malformed attempt payload"}))
		return
	}

	var attackerID uuid.UUID
	if p.PlayerID != "" {
		id, err := uuid.Parse(p.PlayerID)
		if err != nil {
			g.notifyError("invalid player id")
			return
		}
		attackerID = id
	} else {
		player, ok := g.playerByName(p.PlayerName)
		if !ok {
			g.notifyError(ErrUnknownPlayer.Error())
			return
		}
		attackerID = player.ID
	}

	err := g.AttemptWord(p.Word, attackerID)
	if err == nil {
		// Success already broadcast a full anagram_complete snapshot.
		g.emit(envelope(EventAnagramResult, attemptResult{Word: p.Word, Success: true}))
		return
	}

	g.notifyError(err.Error())
	g.emit(envelope(EventAnagramResult, attemptResult{
		Word:    p.Word,
		Success: false,
		Reason:  err.Error(),
	}))
}

func (g *AnagramsGame) handleJoin(data string) {
	var p joinPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		g.emit(envelope(EventError, map[string]string{"error": "malformed join payload"}))
		return
	}
	g.Join(p.Name)
}

// notifyError puts a rejection into the shared chat log as a System notice
// and emits it. Everyone sees nudges like "Word must be at least 3 letters."
func (g *AnagramsGame) notifyError(text string) {
	g.broadcastChat(systemChat(text, "error"))
}

func (g *AnagramsGame) logActionByName(name, action string, payload map[string]interface{}) {
	actor := uuid.Nil
	if p, ok := g.playerByName(name); ok {
		actor = p.ID
	}
	g.logAction(actor, action, payload)
}
