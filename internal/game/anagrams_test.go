// internal/game/anagrams_test.go
package game

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snatchgame/snatch/internal/models"
	"github.com/snatchgame/snatch/internal/words"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []Message
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{}
}

func (mb *mockBroadcaster) broadcastFn(m Message) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = append(mb.events, m)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = nil
}

func (mb *mockBroadcaster) lastOfKind(kind string) *Message {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for i := len(mb.events) - 1; i >= 0; i-- {
		if mb.events[i].Kind == kind {
			return &mb.events[i]
		}
	}
	return nil
}

func (mb *mockBroadcaster) kinds() []string {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]string, len(mb.events))
	for i, ev := range mb.events {
		out[i] = ev.Kind
	}
	return out
}

func testDictionary() *words.Dictionary {
	return words.NewDictionary([]string{
		"cat", "cats", "eat", "treat", "rat", "tar", "art", "star", "rats", "tea",
	})
}

// setupTestGame builds a game with a known dictionary and joins the given
// players. The dealer is not started; tests drive state directly.
func setupTestGame(t *testing.T, names ...string) (*AnagramsGame, []*models.Player, *mockBroadcaster) {
	t.Helper()

	g := NewAnagramsGame("test", testDictionary(), words.SuffixEquivalence{})
	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn

	players := make([]*models.Player, len(names))
	for i, name := range names {
		players[i] = g.Join(name)
	}

	mb.clear()
	return g, players, mb
}

func TestJoinIdempotent(t *testing.T) {
	g, players, mb := setupTestGame(t, "alice")

	again := g.Join("alice")
	assert.Equal(t, players[0].ID, again.ID, "rejoining by name should return the existing player")
	assert.Len(t, g.Details().Players, 1)
	assert.Nil(t, mb.lastOfKind(EventPlayerJoined), "duplicate join should not emit player_joined")

	g.Join("bob")
	assert.Len(t, g.Details().Players, 2)
	require.NotNil(t, mb.lastOfKind(EventPlayerJoined))
}

func TestPotClaim(t *testing.T) {
	g, players, mb := setupTestGame(t, "alice", "bob")
	alice := players[0]

	g.pot = []string{"c", "a", "t", "x"}

	require.NoError(t, g.AttemptWord("cat", alice.ID))
	assert.Equal(t, []string{"x"}, g.Pot())
	assert.Equal(t, []string{"cat"}, g.BoardWords(alice.ID))

	require.NotNil(t, g.lastMove)
	assert.Equal(t, alice.ID, g.lastMove.AttackerID)
	assert.Equal(t, "cat", g.lastMove.WordTaken)
	assert.Empty(t, g.lastMove.WordStolen)
	assert.Equal(t, []string{"c", "a", "t", "x"}, g.lastMove.OldPot)

	ev := mb.lastOfKind(EventAnagramComplete)
	require.NotNil(t, ev)
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &snap))
	assert.Equal(t, []string{"x"}, snap.Pot)
}

func TestBoardSteal(t *testing.T) {
	g, players, mb := setupTestGame(t, "alice", "bob")
	alice, bob := players[0], players[1]

	g.boards[1].addWord("eat")
	g.pot = []string{"t", "r", "x"}

	// treat = eat + {t, r}
	require.NoError(t, g.AttemptWord("treat", alice.ID))

	assert.Equal(t, []string{"treat"}, g.BoardWords(alice.ID))
	assert.Empty(t, g.BoardWords(bob.ID), "victim should lose the extended word")
	assert.Equal(t, []string{"x"}, g.Pot())

	require.NotNil(t, g.lastMove)
	assert.Equal(t, bob.ID, g.lastMove.VictimID)
	assert.Equal(t, "eat", g.lastMove.WordStolen)
	assert.Equal(t, []string{"t", "r", "x"}, g.lastMove.OldPot)

	require.NotNil(t, mb.lastOfKind(EventAnagramComplete))
}

func TestStealNeverTargetsOwnBoard(t *testing.T) {
	g, players, _ := setupTestGame(t, "alice", "bob")
	alice := players[0]

	g.boards[0].addWord("eat")
	g.pot = []string{"t", "r"}

	// Alice cannot extend her own "eat" into "treat", and the pot alone
	// cannot form it.
	err := g.AttemptWord("treat", alice.ID)
	assert.ErrorIs(t, err, ErrWordCannotBeTaken)
	assert.Equal(t, []string{"eat"}, g.BoardWords(alice.ID))
}

func TestStealRejectsInflection(t *testing.T) {
	g, players, _ := setupTestGame(t, "alice", "bob")
	alice := players[0]

	g.boards[1].addWord("cat")
	g.pot = []string{"s"}

	err := g.AttemptWord("cats", alice.ID)
	assert.ErrorIs(t, err, ErrWordCannotBeTaken, "pluralizing a word is not a steal")
}

func TestRejectionLeavesStateUntouched(t *testing.T) {
	g, players, mb := setupTestGame(t, "alice", "bob")
	alice := players[0]

	g.boards[1].addWord("eat")
	g.pot = []string{"x", "y"}

	err := g.AttemptWord("treat", alice.ID)
	assert.ErrorIs(t, err, ErrWordCannotBeTaken)

	assert.Equal(t, []string{"x", "y"}, g.Pot())
	assert.Equal(t, []string{"eat"}, g.BoardWords(players[1].ID))
	assert.Empty(t, g.BoardWords(alice.ID))
	assert.Nil(t, g.lastMove)
	assert.Nil(t, mb.lastOfKind(EventAnagramComplete))
}

func TestAttemptValidation(t *testing.T) {
	g, players, _ := setupTestGame(t, "alice", "bob")
	alice := players[0]
	g.pot = []string{"c", "a", "t", "z", "q"}

	assert.ErrorIs(t, g.AttemptWord("at", alice.ID), ErrWordTooShort)
	assert.ErrorIs(t, g.AttemptWord("zqc", alice.ID), ErrWordNotInDictionary)
	assert.NoError(t, g.AttemptWord("CAT", alice.ID), "attempts are case-insensitive")
}

func TestPauseBlocksAttemptsAndToggles(t *testing.T) {
	g, players, mb := setupTestGame(t, "alice", "bob")
	alice := players[0]
	g.pot = []string{"c", "a", "t"}

	g.TogglePause()
	assert.Equal(t, StatusPaused, g.Status())
	require.NotNil(t, mb.lastOfKind(EventPaused))

	assert.ErrorIs(t, g.AttemptWord("cat", alice.ID), ErrGamePaused)

	g.TogglePause()
	assert.Equal(t, StatusInProgress, g.Status())
	require.NotNil(t, mb.lastOfKind(EventResumed))
	assert.NoError(t, g.AttemptWord("cat", alice.ID))
}

func TestAttemptDuringChallengeRejected(t *testing.T) {
	g, players, _ := setupTestGame(t, "alice", "bob", "carol", "dave")
	alice, bob := players[0], players[1]
	g.pot = []string{"c", "a", "t", "r", "a", "t"}

	require.NoError(t, g.AttemptWord("cat", alice.ID))
	require.NoError(t, g.StartChallenge(bob.ID))
	require.True(t, g.ChallengeActive())

	assert.ErrorIs(t, g.AttemptWord("rat", bob.ID), ErrGamePaused)
}

func TestLetterConservation(t *testing.T) {
	g, players, _ := setupTestGame(t, "alice", "bob")
	alice := players[0]

	g.boards[1].addWord("eat")
	g.pot = []string{"t", "r", "s", "a", "t", "r"}

	countAll := func() map[string]int {
		counts := make(map[string]int)
		for _, b := range g.boards {
			for _, w := range b.Words {
				for l, n := range letterCounts(w) {
					counts[l] += n
				}
			}
		}
		for _, l := range g.Pot() {
			counts[l]++
		}
		return counts
	}

	before := countAll()
	require.NoError(t, g.AttemptWord("treat", alice.ID))
	assert.Equal(t, before, countAll(), "a steal moves letters, it never creates or destroys them")
}

func TestEndGameScoring(t *testing.T) {
	g, players, mb := setupTestGame(t, "alice", "bob")
	alice, bob := players[0], players[1]

	g.boards[0].addWord("cat")
	g.boards[0].addWord("rat")
	g.boards[1].addWord("star")

	var gotScores map[uuid.UUID]int
	var gotWinner uuid.UUID
	g.OnGameEnd = func(_ *AnagramsGame, scores map[uuid.UUID]int, winner uuid.UUID) {
		gotScores = scores
		gotWinner = winner
	}

	g.EndGame()
	assert.Equal(t, alice.ID, gotWinner)
	assert.Equal(t, map[uuid.UUID]int{alice.ID: 2, bob.ID: 1}, gotScores)
	assert.Equal(t, StatusGameOver, g.Status())
	assert.Equal(t, 2, alice.Score)
	assert.Equal(t, 1, bob.Score)
	require.NotNil(t, mb.lastOfKind(EventGameOver))

	// Idempotent: a second call changes nothing and emits nothing new.
	mb.clear()
	g.EndGame()
	assert.Empty(t, mb.kinds())

	// Terminal: no pause toggles or attempts after game over.
	g.TogglePause()
	assert.Equal(t, StatusGameOver, g.Status())
}

func TestHandleMessageChatAndCommands(t *testing.T) {
	g, _, mb := setupTestGame(t, "alice", "bob")

	send := func(kind string, payload interface{}) {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		env, err := json.Marshal(Message{Kind: kind, Data: string(data)})
		require.NoError(t, err)
		g.HandleMessage(string(env))
	}

	send(CmdChat, chatPayload{Sender: "alice", Text: "hello"})
	ev := mb.lastOfKind(EventChat)
	require.NotNil(t, ev)
	var chat ChatMessage
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &chat))
	assert.Equal(t, "alice", chat.Sender)
	assert.Equal(t, "hello", chat.Text)

	// Slash commands are intercepted, never relayed as chat.
	mb.clear()
	send(CmdChat, chatPayload{Sender: "alice", Text: "/pause"})
	assert.Equal(t, StatusPaused, g.Status())
	assert.Nil(t, mb.lastOfKind(EventChat))
	send(CmdChat, chatPayload{Sender: "alice", Text: "/pause"})

	send(CmdChat, chatPayload{Sender: "alice", Text: "/gameover"})
	assert.Equal(t, StatusGameOver, g.Status())
}

func TestHandleMessageAttempt(t *testing.T) {
	g, players, mb := setupTestGame(t, "alice", "bob")
	g.pot = []string{"c", "a", "t"}

	send := func(p attemptPayload) {
		data, _ := json.Marshal(p)
		env, _ := json.Marshal(Message{Kind: CmdAnagramAttempt, Data: string(data)})
		g.HandleMessage(string(env))
	}

	// Resolution by name.
	send(attemptPayload{PlayerName: "alice", Word: "cat"})
	assert.Equal(t, []string{"cat"}, g.BoardWords(players[0].ID))

	ev := mb.lastOfKind(EventAnagramResult)
	require.NotNil(t, ev)
	var res attemptResult
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &res))
	assert.True(t, res.Success)

	// Failure: result event carries the reason and a System error notice
	// lands in chat.
	mb.clear()
	send(attemptPayload{PlayerID: players[1].ID.String(), Word: "star"})
	ev = mb.lastOfKind(EventAnagramResult)
	require.NotNil(t, ev)
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &res))
	assert.False(t, res.Success)
	assert.Equal(t, ErrWordCannotBeTaken.Error(), res.Reason)

	chatEv := mb.lastOfKind(EventChat)
	require.NotNil(t, chatEv)
	var notice ChatMessage
	require.NoError(t, json.Unmarshal([]byte(chatEv.Data), &notice))
	assert.Equal(t, "System", notice.Sender)
	assert.Equal(t, "error", notice.MessageType)
}

func TestHandleMessageMalformed(t *testing.T) {
	g, _, mb := setupTestGame(t, "alice")

	g.HandleMessage("not json")
	require.NotNil(t, mb.lastOfKind(EventError))

	mb.clear()
	env, _ := json.Marshal(Message{Kind: "teleport", Data: "{}"})
	g.HandleMessage(string(env))
	require.NotNil(t, mb.lastOfKind(EventError))
}

func TestSnapshotIsolation(t *testing.T) {
	g, players, _ := setupTestGame(t, "alice")
	g.pot = []string{"c", "a", "t"}
	g.boards[0].addWord("rat")

	msg := g.Snapshot(EventInit)
	assert.Equal(t, EventInit, msg.Kind)

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(msg.Data), &snap))
	require.Len(t, snap.Boards, 1)
	assert.Equal(t, []string{"rat"}, snap.Boards[0].Words)
	assert.Equal(t, []string{"c", "a", "t"}, snap.Pot)
	assert.Equal(t, players[0].Name, snap.GameState.Players[0].Name)
}
