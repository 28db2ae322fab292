// internal/historian/historian.go
//
// The historian is an asynchronous consumer: the game server pushes one
// ActionRecord per applied move onto a Redis list, and this service pops
// them, batches them, and persists them to PostgreSQL. Game latency never
// touches the database.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/snatchgame/snatch/internal/cache"
	"github.com/snatchgame/snatch/internal/database"
)

// Service encapsulates the Redis + DB logic for capturing game actions and
// marking games abandoned after a period of inactivity.
type Service struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	batchSize   int
	flushDelay  time.Duration
	inactivity  time.Duration

	lastActivity sync.Map // map[uuid.UUID]time.Time per game

	batchMu  sync.Mutex
	batch    []cache.ActionRecord
	flushFn  func(ctx context.Context, records []cache.ActionRecord) error
	ctx      context.Context
	cancelFn context.CancelFunc
}

// New constructs a Service from environment variables or defaults.
func New(logger *logrus.Logger) *Service {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)
	inactivitySec := getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)

	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		redisClient: rdb,
		logger:      logger,
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		inactivity:  time.Duration(inactivitySec) * time.Second,
		batch:       make([]cache.ActionRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
	s.flushFn = s.insertBatch
	return s
}

// Run connects to the database and starts the consume and inactivity loops.
// Blocks until Stop is called.
func (s *Service) Run() error {
	if err := database.ConnectDB(); err != nil {
		return fmt.Errorf("historian: %w", err)
	}

	go s.readRedisLoop()
	go s.inactivityLoop()

	s.logger.Info("snatch-historian service started")
	<-s.ctx.Done()
	s.logger.Info("snatch-historian shutting down")
	return nil
}

// Stop gracefully stops the service.
func (s *Service) Stop() {
	s.cancelFn()
}

// readRedisLoop pops records off the queue with BLPop and accumulates them,
// flushing on size or on the periodic timer.
func (s *Service) readRedisLoop() {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()

	queueName := cache.QueueName()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			s.flush()

		default:
			// 3-second timeout so context cancellation is noticed.
			res, err := s.redisClient.BLPop(s.ctx, 3*time.Second, queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if s.ctx.Err() != nil {
					return
				}
				s.logger.WithError(err).Error("BLPop")
				continue
			}
			if len(res) < 2 {
				continue
			}

			var record cache.ActionRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				s.logger.WithError(err).Warn("invalid action record")
				continue
			}

			s.lastActivity.Store(record.GameID, time.Now())
			s.append(record)
		}
	}
}

func (s *Service) append(record cache.ActionRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, record)
	full := len(s.batch) >= s.batchSize
	s.batchMu.Unlock()
	if full {
		s.flush()
	}
}

// flush drains the pending batch and hands it to flushFn.
func (s *Service) flush() {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.ActionRecord, len(s.batch))
	copy(batchCopy, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.flushFn(context.Background(), batchCopy); err != nil {
		s.logger.WithError(err).Error("flush batch")
	} else {
		s.logger.WithField("count", len(batchCopy)).Debug("flushed actions to DB")
	}
}

// insertBatch writes one batch in a single transaction.
func (s *Service) insertBatch(ctx context.Context, records []cache.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertActionTx: %w", err)
			}
		}
		return nil
	})
}

// insertActionTx inserts one action row, upserting the parent game row. A
// game_over action finalizes the game.
func insertActionTx(ctx context.Context, tx pgx.Tx, rec cache.ActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id)
		DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID); err != nil {
		return err
	}

	jsonPayload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (
			game_id, action_index, actor_id, action_type, action_payload
		) VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.Exec(ctx, actionInsertQ,
		rec.GameID, rec.ActionIndex, rec.ActorID, rec.ActionType, jsonPayload,
	); err != nil {
		return err
	}

	if rec.ActionType == "game_over" {
		finalizeQ := `
			UPDATE games
			SET status = 'completed', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.GameID); err != nil {
			return err
		}
	}
	return nil
}

// inactivityLoop marks games abandoned once no action has arrived for the
// configured threshold.
func (s *Service) inactivityLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			s.lastActivity.Range(func(key, val interface{}) bool {
				gameID, ok1 := key.(uuid.UUID)
				last, ok2 := val.(time.Time)
				if ok1 && ok2 && now.Sub(last) > s.inactivity {
					s.markGameAbandoned(gameID)
					s.lastActivity.Delete(gameID)
				}
				return true
			})
		}
	}
}

func (s *Service) markGameAbandoned(gameID uuid.UUID) {
	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		_, e := tx.Exec(ctx, q, gameID)
		return e
	})
	if err != nil {
		s.logger.WithError(err).Warnf("failed to mark game %v abandoned", gameID)
	} else {
		s.logger.Infof("marked game %v abandoned due to inactivity", gameID)
	}
}

func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
