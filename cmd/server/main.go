// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/snatchgame/snatch/internal/auth"
	"github.com/snatchgame/snatch/internal/cache"
	"github.com/snatchgame/snatch/internal/database"
	"github.com/snatchgame/snatch/internal/handlers"
	"github.com/snatchgame/snatch/internal/middleware"
	"github.com/snatchgame/snatch/internal/words"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// With key files configured, session tokens survive server restarts.
	// Otherwise a fresh key pair is generated and old tokens become guests.
	privKeyPath := os.Getenv("JWT_PRIVATE_KEY_PATH")
	pubKeyPath := os.Getenv("JWT_PUBLIC_KEY_PATH")
	if privKeyPath != "" && pubKeyPath != "" {
		if err := auth.InitFromPath(privKeyPath, pubKeyPath); err != nil {
			logger.Fatalf("auth init from key files: %v", err)
		}
	} else if err := auth.Init(); err != nil {
		logger.Fatalf("auth init: %v", err)
	}

	// Postgres and Redis are optional: without them the server still runs,
	// with accounts, history and results disabled.
	if err := database.ConnectDB(); err != nil {
		logger.Warnf("running without database: %v", err)
		database.DB = nil
	}
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("running without redis (action history disabled): %v", err)
		cache.Rdb = nil
	}

	dictPath := os.Getenv("WORD_LIST")
	if dictPath == "" {
		dictPath = "words.txt"
	}
	dict, err := words.LoadDictionary(dictPath)
	if err != nil {
		logger.Fatalf("failed to load word list %s: %v", dictPath, err)
	}
	logger.Infof("loaded %d dictionary words from %s", dict.Len(), dictPath)

	// Lemma comparisons go to the external lemmatizer when configured, and
	// fall back to suffix stripping otherwise.
	var lemma words.Equivalence = words.SuffixEquivalence{}
	if base := os.Getenv("LEMMA_SERVICE_URL"); base != "" {
		lemma = words.NewLemmaClient(base)
		logger.Infof("using lemma service at %s", base)
	}

	srv := handlers.NewGameServer(logger, dict, lemma)
	lobbyHub := handlers.NewHub(logger)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)

	// game websocket
	mux.Handle("/game/ws/", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, srv),
	)))

	// lobby websocket
	mux.Handle("/lobby/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.LobbyWSHandler(logger, srv, lobbyHub),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
