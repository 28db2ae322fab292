// internal/handlers/lobby_ws.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/snatchgame/snatch/internal/game"
	"github.com/snatchgame/snatch/internal/middleware"
)

// Lobby event and command kinds. The lobby shares the game's wire envelope;
// its subscribers see the live game directory and a shared chat room.
const (
	LobbyCmdCreateGame = "create_game"
	LobbyCmdListGames  = "list_games"
	LobbyCmdDeleteGame = "delete_game"
	LobbyCmdChat       = "lobby_chat"

	LobbyEventGameList = "game_list"
	LobbyEventChat     = "lobby_chat"
	LobbyEventError    = "error"
)

type createGamePayload struct {
	Name string `json:"name"`
}

type deleteGamePayload struct {
	GameID string `json:"game_id"`
}

type lobbyChatPayload struct {
	Sender string `json:"sender"`
	Text   string `json:"message"`
}

// LobbyWSHandler serves /lobby/ws: a directory socket through which clients
// create, list and delete games and chat while they wait. Every directory
// change is broadcast to all lobby subscribers as a fresh game_list.
func LobbyWSHandler(logger *logrus.Logger, gs *GameServer, lobbyHub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := EnsureEphemeralUser(w, r); err != nil {
			logger.Warnf("lobby authentication failed: %v", err)
			http.Error(w, "Authentication failed", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lobby"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("lobby WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "lobby" {
			c.Close(BadSubprotocolError, "Client must use the 'lobby' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		subID := lobbyHub.Subscribe(c, func() game.Message {
			return gameListMessage(gs)
		})
		defer lobbyHub.Unsubscribe(subID)

		ctx := r.Context()
		for {
			msgType, data, err := c.Read(ctx)
			if err != nil {
				middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
				return
			}
			if msgType != websocket.MessageText {
				continue
			}

			var msg game.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				lobbyHub.Broadcast(lobbyError("malformed message"))
				continue
			}
			handleLobbyCommand(logger, gs, lobbyHub, msg)
		}
	}
}

func handleLobbyCommand(logger *logrus.Logger, gs *GameServer, lobbyHub *Hub, msg game.Message) {
	switch msg.Kind {
	case LobbyCmdCreateGame:
		var p createGamePayload
		if err := json.Unmarshal([]byte(msg.Data), &p); err != nil {
			lobbyHub.Broadcast(lobbyError("malformed create_game payload"))
			return
		}
		gs.CreateGame(p.Name)
		lobbyHub.Broadcast(gameListMessage(gs))

	case LobbyCmdListGames:
		lobbyHub.Broadcast(gameListMessage(gs))

	case LobbyCmdDeleteGame:
		var p deleteGamePayload
		if err := json.Unmarshal([]byte(msg.Data), &p); err != nil {
			lobbyHub.Broadcast(lobbyError("malformed delete_game payload"))
			return
		}
		id, err := uuid.Parse(p.GameID)
		if err != nil {
			lobbyHub.Broadcast(lobbyError("invalid game_id"))
			return
		}
		gs.DeleteGame(id)
		lobbyHub.Broadcast(gameListMessage(gs))

	case LobbyCmdChat:
		var p lobbyChatPayload
		if err := json.Unmarshal([]byte(msg.Data), &p); err != nil {
			lobbyHub.Broadcast(lobbyError("malformed chat payload"))
			return
		}
		lobbyHub.Broadcast(lobbyEnvelope(LobbyEventChat, p))

	default:
		logger.Warnf("unknown lobby command %q", msg.Kind)
		lobbyHub.Broadcast(lobbyError("unknown lobby command: " + msg.Kind))
	}
}

func gameListMessage(gs *GameServer) game.Message {
	return lobbyEnvelope(LobbyEventGameList, gs.GameStore.ListGames())
}

func lobbyError(text string) game.Message {
	return lobbyEnvelope(LobbyEventError, map[string]string{"error": text})
}

func lobbyEnvelope(kind string, payload interface{}) game.Message {
	data, err := json.Marshal(payload)
	if err != nil {
		return game.Message{Kind: kind, Data: "{}"}
	}
	return game.Message{Kind: kind, Data: string(data)}
}
