// internal/game/anagrams.go
package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/snatchgame/snatch/internal/models"
	"github.com/snatchgame/snatch/internal/words"
)

// LastMove is the single outstanding undo record. It captures everything
// needed to reverse the most recent claim exactly, including the pot value
// from before the move. At most one exists at a time; it is cleared when a
// challenge resolves, and no new claim can occur while one is contested.
type LastMove struct {
	AttackerID uuid.UUID
	VictimID   uuid.UUID // uuid.Nil when the word came from the pot
	WordTaken  string
	WordStolen string // empty when the word came from the pot
	OldPot     []string
}

// ActionFunc receives a record of every applied game action for the
// out-of-process historian. Called outside the state lock; may be nil.
type ActionFunc func(gameID uuid.UUID, index int, actor uuid.UUID, action string, payload map[string]interface{})

// GameEndFunc is invoked once when the game reaches game_over, with final
// scores keyed by player id. Called outside the state lock; may be nil.
type GameEndFunc func(g *AnagramsGame, scores map[uuid.UUID]int, winner uuid.UUID)

// AnagramsGame is the in-memory authority for one word-steal game. All
// mutable state lives behind mu: command handlers and the tile dealer
// contend for it, readers (snapshots) may run concurrently with each other
// but never with a writer.
type AnagramsGame struct {
	ID   uuid.UUID
	Name string

	// Injected capabilities. Set before Start and never changed after.
	Dict  *words.Dictionary
	Lemma words.Equivalence
	Clock quartz.Clock

	// Dealer cadence. TickInterval only exists to sample the pause flag
	// responsively; a deal happens once DealInterval of unpaused time has
	// accumulated.
	TickInterval time.Duration
	DealInterval time.Duration

	// BroadcastFn sends an event to every subscriber. The transport layer
	// installs it; nil means events are dropped. Always called after the
	// state lock has been released.
	BroadcastFn func(Message)

	OnGameEnd GameEndFunc
	LogAction ActionFunc

	mu              sync.RWMutex
	bag             *Bag
	pot             []string
	boards          []*PlayerBoard
	players         []*models.Player
	chat            []ChatMessage
	status          string
	paused          bool
	activeChallenge bool
	votes           map[uuid.UUID]bool
	lastMove        *LastMove
	actionIndex     int

	dealElapsed  time.Duration // touched only by the dealer tick
	dealerCancel context.CancelFunc
	dealerDone   chan struct{}
	stopOnce     sync.Once
}

var _ Game = (*AnagramsGame)(nil)

// NewAnagramsGame builds a game with a freshly shuffled bag and one letter
// pre-seeded into the pot. The dealer does not run until Start.
func NewAnagramsGame(name string, dict *words.Dictionary, lemma words.Equivalence) *AnagramsGame {
	id, _ := uuid.NewRandom()
	bag := NewBag()
	first, _ := bag.Draw()

	return &AnagramsGame{
		ID:           id,
		Name:         name,
		Dict:         dict,
		Lemma:        lemma,
		Clock:        quartz.NewReal(),
		TickInterval: 200 * time.Millisecond,
		DealInterval: 7 * time.Second,
		bag:          bag,
		pot:          []string{first},
		boards:       []*PlayerBoard{},
		players:      []*models.Player{},
		chat:         []ChatMessage{},
		status:       StatusInProgress,
		votes:        make(map[uuid.UUID]bool),
	}
}

// Start launches the tile dealer. Safe to call once.
func (g *AnagramsGame) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	g.dealerCancel = cancel
	g.dealerDone = make(chan struct{})
	g.startDealer(ctx)
}

// Stop cancels the dealer. The dealer also terminates on its own when the
// bag runs out or the game ends; Stop exists so the directory can drop a
// game without leaking its ticker.
func (g *AnagramsGame) Stop() {
	g.stopOnce.Do(func() {
		if g.dealerCancel != nil {
			g.dealerCancel()
		}
	})
}

// Status returns the lifecycle status.
func (g *AnagramsGame) Status() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// Details returns a copy of identity, status and roster.
func (g *AnagramsGame) Details() Details {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.detailsLocked()
}

func (g *AnagramsGame) detailsLocked() Details {
	players := make([]models.Player, 0, len(g.players))
	for _, p := range g.players {
		players = append(players, models.Player{
			ID:        p.ID,
			Name:      p.Name,
			Score:     p.Score,
			Connected: p.Connected,
		})
	}
	return Details{
		ID:      g.ID,
		Name:    g.Name,
		Kind:    KindAnagrams,
		Status:  g.status,
		Players: players,
	}
}

// Snapshot produces a full-state event of the given kind under a shared lock.
func (g *AnagramsGame) Snapshot(kind string) Message {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked(kind)
}

func (g *AnagramsGame) snapshotLocked(kind string) Message {
	pot := make([]string, len(g.pot))
	copy(pot, g.pot)

	boards := make([]*PlayerBoard, 0, len(g.boards))
	for _, b := range g.boards {
		wordsCopy := make([]string, len(b.Words))
		copy(wordsCopy, b.Words)
		boards = append(boards, &PlayerBoard{Player: b.Player, Words: wordsCopy})
	}

	chat := make([]ChatMessage, len(g.chat))
	copy(chat, g.chat)

	return envelope(kind, Snapshot{
		GameState: g.detailsLocked(),
		Pot:       pot,
		Boards:    boards,
		Chat:      chat,
	})
}

// Pot returns a copy of the current pot.
func (g *AnagramsGame) Pot() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pot := make([]string, len(g.pot))
	copy(pot, g.pot)
	return pot
}

// BagRemaining returns the number of undrawn letters.
func (g *AnagramsGame) BagRemaining() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bag.Remaining()
}

// BoardWords returns a copy of a player's claimed words.
func (g *AnagramsGame) BoardWords(playerID uuid.UUID) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, b := range g.boards {
		if b.Player.ID == playerID {
			wordsCopy := make([]string, len(b.Words))
			copy(wordsCopy, b.Words)
			return wordsCopy
		}
	}
	return nil
}

// emit hands an event to the transport layer. Never called with mu held.
func (g *AnagramsGame) emit(m Message) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(m)
	}
}

func (g *AnagramsGame) appendChatLocked(msg ChatMessage) {
	g.chat = append(g.chat, msg)
}

// broadcastChat appends a chat entry to the log and emits it as a standalone
// chat event.
func (g *AnagramsGame) broadcastChat(msg ChatMessage) {
	g.mu.Lock()
	g.appendChatLocked(msg)
	g.mu.Unlock()
	g.emit(envelope(EventChat, msg))
}

func (g *AnagramsGame) logAction(actor uuid.UUID, action string, payload map[string]interface{}) {
	if g.LogAction == nil {
		return
	}
	g.mu.Lock()
	g.actionIndex++
	idx := g.actionIndex
	g.mu.Unlock()
	g.LogAction(g.ID, idx, actor, action, payload)
}

// Join adds a player by name. Idempotent: a duplicate name returns the
// existing player and produces no event.
func (g *AnagramsGame) Join(name string) *models.Player {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Anonymous"
	}

	g.mu.Lock()
	for _, p := range g.players {
		if p.Name == name {
			g.mu.Unlock()
			return p
		}
	}

	id, _ := uuid.NewRandom()
	p := &models.Player{ID: id, Name: name, Connected: true}
	g.players = append(g.players, p)
	g.boards = append(g.boards, newBoard(p))
	snap := g.snapshotLocked(EventPlayerJoined)
	g.mu.Unlock()

	g.emit(snap)
	g.logAction(p.ID, "player_join", map[string]interface{}{"name": name})
	return p
}

// playerByName resolves a roster entry by display name.
func (g *AnagramsGame) playerByName(name string) (*models.Player, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, p := range g.players {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (g *AnagramsGame) playerByID(id uuid.UUID) (*models.Player, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, p := range g.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// stealPlan is the outcome of the read-phase victim search.
type stealPlan struct {
	victimID   uuid.UUID
	victimWord string
}

// AttemptWord runs the steal validation for one candidate word and applies
// the winning path. Validation reads state under a shared lock; the chosen
// mutation re-acquires the exclusive lock and re-verifies against the
// current pot, so a deal or competing steal that lands in between makes the
// attempt fail closed instead of corrupting letter accounting.
func (g *AnagramsGame) AttemptWord(word string, attackerID uuid.UUID) error {
	word = strings.ToLower(strings.TrimSpace(word))

	g.mu.RLock()
	paused, challenge := g.paused, g.activeChallenge
	g.mu.RUnlock()
	if paused {
		return ErrGamePaused
	}
	if challenge {
		return ErrChallengeInProgress
	}
	if len(word) < 3 {
		return ErrWordTooShort
	}
	if !g.Dict.Contains(word) {
		return ErrWordNotInDictionary
	}

	var plan *stealPlan
	potPossible := false

	g.mu.RLock()
	if len(g.boards) == 0 {
		g.mu.RUnlock()
		return ErrNoEligiblePlayers
	}

	// Fresh shuffle per attempt: no player is a perpetually preferred or
	// perpetually protected victim when several are eligible.
	order := rand.Perm(len(g.boards))
	for _, i := range order {
		board := g.boards[i]
		if board.Player.ID == attackerID {
			continue
		}
		for _, existing := range board.Words {
			if _, ok := extendSteal(existing, word, g.pot, g.Lemma); ok {
				plan = &stealPlan{victimID: board.Player.ID, victimWord: existing}
				break
			}
		}
		if plan != nil {
			break
		}
	}
	if plan == nil {
		_, potPossible = potSteal(word, g.pot)
	}
	g.mu.RUnlock()

	if plan != nil {
		return g.applySteal(word, attackerID, plan)
	}
	if potPossible {
		return g.applyPotClaim(word, attackerID)
	}
	return ErrWordCannotBeTaken
}

// applySteal moves victimWord off the victim's board, consumes the letter
// difference from the pot, and appends word to the attacker's board, all
// under the exclusive lock.
func (g *AnagramsGame) applySteal(word string, attackerID uuid.UUID, plan *stealPlan) error {
	g.mu.Lock()

	// A pause or challenge may have landed since validation; the contested
	// move must not be overwritten.
	if g.paused || g.activeChallenge {
		g.mu.Unlock()
		return ErrGamePaused
	}

	attacker := g.boardOfLocked(attackerID)
	victim := g.boardOfLocked(plan.victimID)
	if attacker == nil {
		g.mu.Unlock()
		return ErrUnknownPlayer
	}
	if victim == nil || !victim.hasWord(plan.victimWord) {
		g.mu.Unlock()
		return ErrWordCannotBeTaken
	}

	// Recompute against the current pot: state may have moved since the
	// read phase.
	newPot, ok := extendSteal(plan.victimWord, word, g.pot, g.Lemma)
	if !ok {
		g.mu.Unlock()
		return ErrWordCannotBeTaken
	}

	oldPot := g.pot
	g.pot = newPot
	victim.removeWord(plan.victimWord)
	attacker.addWord(word)
	g.lastMove = &LastMove{
		AttackerID: attackerID,
		VictimID:   plan.victimID,
		WordTaken:  word,
		WordStolen: plan.victimWord,
		OldPot:     oldPot,
	}

	g.appendChatLocked(systemChat(
		fmt.Sprintf("%s took %s from %s's %s!",
			attacker.Player.Name, word, victim.Player.Name, plan.victimWord),
		"success"))
	snap := g.snapshotLocked(EventAnagramComplete)
	g.mu.Unlock()

	g.emit(snap)
	g.logAction(attackerID, "anagram_steal", map[string]interface{}{
		"word":   word,
		"victim": plan.victimID.String(),
		"stolen": plan.victimWord,
	})
	return nil
}

// applyPotClaim forms word from the pot alone under the exclusive lock.
func (g *AnagramsGame) applyPotClaim(word string, attackerID uuid.UUID) error {
	g.mu.Lock()

	if g.paused || g.activeChallenge {
		g.mu.Unlock()
		return ErrGamePaused
	}

	attacker := g.boardOfLocked(attackerID)
	if attacker == nil {
		g.mu.Unlock()
		return ErrUnknownPlayer
	}

	newPot, ok := potSteal(word, g.pot)
	if !ok {
		g.mu.Unlock()
		return ErrWordCannotBeTaken
	}

	oldPot := g.pot
	g.pot = newPot
	attacker.addWord(word)
	g.lastMove = &LastMove{
		AttackerID: attackerID,
		WordTaken:  word,
		OldPot:     oldPot,
	}

	g.appendChatLocked(systemChat(
		fmt.Sprintf("%s formed %s from the pot!", attacker.Player.Name, word),
		"success"))
	snap := g.snapshotLocked(EventAnagramComplete)
	g.mu.Unlock()

	g.emit(snap)
	g.logAction(attackerID, "anagram_pot_claim", map[string]interface{}{"word": word})
	return nil
}

func (g *AnagramsGame) boardOfLocked(playerID uuid.UUID) *PlayerBoard {
	for _, b := range g.boards {
		if b.Player.ID == playerID {
			return b
		}
	}
	return nil
}

// TogglePause flips the pause flag. Ignored while a challenge holds the game
// paused: challenge resolution is the only thing allowed to resume then.
func (g *AnagramsGame) TogglePause() {
	g.mu.Lock()
	if g.activeChallenge || g.status == StatusGameOver {
		g.mu.Unlock()
		return
	}
	g.paused = !g.paused
	pausedNow := g.paused
	if pausedNow {
		g.status = StatusPaused
		g.appendChatLocked(systemChat("Game paused. Letter dealing and word taking are disabled.", "info"))
	} else {
		g.status = StatusInProgress
		g.appendChatLocked(systemChat("Game resumed. Letter dealing and word taking are enabled.", "info"))
	}
	kind := EventResumed
	if pausedNow {
		kind = EventPaused
	}
	snap := g.snapshotLocked(kind)
	g.mu.Unlock()

	g.emit(snap)
}

// EndGame finalizes scores (word count per board), marks the game over and
// stops the dealer. Idempotent.
func (g *AnagramsGame) EndGame() {
	g.mu.Lock()
	if g.status == StatusGameOver {
		g.mu.Unlock()
		return
	}
	g.status = StatusGameOver
	g.paused = false
	g.activeChallenge = false
	g.lastMove = nil

	scores := make(map[uuid.UUID]int, len(g.players))
	var winner uuid.UUID
	best := -1
	for _, b := range g.boards {
		b.Player.Score = len(b.Words)
		scores[b.Player.ID] = len(b.Words)
		if len(b.Words) > best {
			best = len(b.Words)
			winner = b.Player.ID
		}
	}

	g.appendChatLocked(systemChat("Game Over! Final scores have been calculated.", "info"))
	snap := g.snapshotLocked(EventGameOver)
	g.mu.Unlock()

	g.Stop()
	g.emit(snap)
	g.logAction(uuid.Nil, "game_over", map[string]interface{}{"winner": winner.String()})
	if g.OnGameEnd != nil {
		g.OnGameEnd(g, scores, winner)
	}
}
