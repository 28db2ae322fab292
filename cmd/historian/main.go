// cmd/historian/main.go runs the asynchronous historian: it pops game action
// records from the Redis queue and persists them to PostgreSQL.
package main

import (
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/snatchgame/snatch/internal/historian"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	hs := historian.New(logger)
	go func() {
		if err := hs.Run(); err != nil {
			logger.Fatalf("historian: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	hs.Stop()
	logger.Info("historian shutdown complete")
}
