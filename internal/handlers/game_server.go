// internal/handlers/game_server.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/snatchgame/snatch/internal/cache"
	"github.com/snatchgame/snatch/internal/database"
	"github.com/snatchgame/snatch/internal/game"
	"github.com/snatchgame/snatch/internal/models"
	"github.com/snatchgame/snatch/internal/words"
)

// GameServer owns the game directory and the per-game broadcast hubs, and
// wires each new game's callbacks to the transport, the historian queue, and
// the results store.
type GameServer struct {
	Logger    *logrus.Logger
	GameStore *game.GameStore
	Dict      *words.Dictionary
	Lemma     words.Equivalence

	mu   sync.Mutex
	hubs map[uuid.UUID]*Hub
}

func NewGameServer(logger *logrus.Logger, dict *words.Dictionary, lemma words.Equivalence) *GameServer {
	return &GameServer{
		Logger:    logger,
		GameStore: game.NewGameStore(),
		Dict:      dict,
		Lemma:     lemma,
		hubs:      make(map[uuid.UUID]*Hub),
	}
}

// Hub returns the broadcast hub for a game, if the game exists.
func (gs *GameServer) Hub(gameID uuid.UUID) (*Hub, bool) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	h, ok := gs.hubs[gameID]
	return h, ok
}

// CreateGame builds, wires, registers, and starts a new game.
func (gs *GameServer) CreateGame(name string) *game.AnagramsGame {
	g := game.NewAnagramsGame(name, gs.Dict, gs.Lemma)
	hub := NewHub(gs.Logger)

	g.BroadcastFn = hub.Broadcast
	if cache.Rdb != nil {
		g.LogAction = publishAction(gs.Logger)
	}
	g.OnGameEnd = gs.persistResults

	gs.mu.Lock()
	gs.hubs[g.ID] = hub
	gs.mu.Unlock()
	gs.GameStore.AddGame(g)

	g.Start()
	gs.Logger.WithFields(logrus.Fields{"game_id": g.ID, "name": name}).Info("game created")
	return g
}

// DeleteGame stops a game and tears down its hub.
func (gs *GameServer) DeleteGame(gameID uuid.UUID) {
	gs.GameStore.DeleteGame(gameID)

	gs.mu.Lock()
	hub, ok := gs.hubs[gameID]
	delete(gs.hubs, gameID)
	gs.mu.Unlock()
	if ok {
		hub.Shutdown()
	}
	gs.Logger.WithField("game_id", gameID).Info("game deleted")
}

// persistResults records the final outcome and last snapshot when the game
// ends. The hub stays up until the game is deleted so late readers still see
// the game_over event.
func (gs *GameServer) persistResults(g *game.AnagramsGame, scores map[uuid.UUID]int, winner uuid.UUID) {
	if !database.Connected() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	details := g.Details()
	roster := make([]*models.Player, len(details.Players))
	for i := range details.Players {
		roster[i] = &details.Players[i]
	}
	if err := database.RecordGameResults(ctx, g.ID, roster, scores, winner); err != nil {
		gs.Logger.WithError(err).Error("failed to record game results")
	}

	var snap game.Snapshot
	final := g.Snapshot(game.EventGameOver)
	if err := json.Unmarshal([]byte(final.Data), &snap); err == nil {
		if err := database.StoreFinalGameState(ctx, g.ID, snap); err != nil {
			gs.Logger.WithError(err).Error("failed to store final game state")
		}
	}
}

// publishAction bridges the game's action hook to the Redis historian queue.
func publishAction(logger *logrus.Logger) game.ActionFunc {
	return func(gameID uuid.UUID, index int, actor uuid.UUID, action string, payload map[string]interface{}) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := cache.PublishAction(ctx, cache.ActionRecord{
			GameID:        gameID,
			ActionIndex:   index,
			ActorID:       actor,
			ActionType:    action,
			ActionPayload: payload,
			Timestamp:     time.Now().UnixMilli(),
		})
		if err != nil {
			logger.WithError(err).Warn("failed to publish action record")
		}
	}
}
