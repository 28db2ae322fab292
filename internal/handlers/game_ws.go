// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/snatchgame/snatch/internal/game"
	"github.com/snatchgame/snatch/internal/middleware"
)

// GameWSHandler upgrades the HTTP connection to WebSocket for one game
// instance at /game/ws/{game_id}?name={display_name}. The client is
// subscribed to the game's hub (receiving the init snapshot first), joined
// to the roster, and then every text frame it sends is handed to the game's
// command dispatcher.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameIDStr := strings.TrimPrefix(r.URL.Path, "/game/ws/")
		if idx := strings.Index(gameIDStr, "/"); idx != -1 {
			gameIDStr = gameIDStr[:idx]
		}
		if gameIDStr == "" {
			http.Error(w, "Missing game_id in path (/game/ws/{game_id})", http.StatusBadRequest)
			return
		}
		gameID, err := uuid.Parse(gameIDStr)
		if err != nil {
			http.Error(w, "Invalid game_id format", http.StatusBadRequest)
			return
		}

		g, ok := gs.GameStore.GetGame(gameID)
		if !ok {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		if g.Status() == game.StatusGameOver {
			http.Error(w, "Game has already ended", http.StatusGone)
			return
		}
		hub, ok := gs.Hub(gameID)
		if !ok {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}

		// Identify the user before the upgrade so the cookie can still be set.
		userID, err := EnsureEphemeralUser(w, r)
		if err != nil {
			logger.Warnf("user authentication failed for game %s: %v", gameID, err)
			http.Error(w, "Authentication failed", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("client for game %s connected with invalid subprotocol: %s", gameID, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		// Subscribe first: the init snapshot is queued atomically with the
		// subscription, so the join event that follows is never missed.
		subID := hub.Subscribe(c, func() game.Message { return g.Snapshot(game.EventInit) })
		defer hub.Unsubscribe(subID)

		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			name = "Guest-" + userID.String()[:8]
		}
		player := g.Join(name)
		logger.WithFields(logrus.Fields{
			"game_id":   gameID,
			"player_id": player.ID,
			"name":      player.Name,
		}).Info("player connected")

		readGameMessages(r.Context(), c, g, logger)

		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readGameMessages pumps client frames into the game until the connection
// drops or the context is cancelled. The game handles its own locking; the
// read loop never holds any.
func readGameMessages(ctx context.Context, c *websocket.Conn, g *game.AnagramsGame, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Debugf("WebSocket closed normally for game %s", g.ID)
			} else if ctx.Err() != nil {
				logger.Debugf("WebSocket context canceled for game %s", g.ID)
			} else {
				logger.Warnf("error reading from WebSocket for game %s: %v", g.ID, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			logger.Warnf("ignoring non-text message in game %s", g.ID)
			continue
		}

		g.HandleMessage(string(data))
	}
}
