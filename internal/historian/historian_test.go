// internal/historian/historian_test.go
package historian

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snatchgame/snatch/internal/cache"
)

func newTestService(t *testing.T, batchSize int) (*Service, *[][]cache.ActionRecord) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	s := New(logger)
	s.batchSize = batchSize

	var flushed [][]cache.ActionRecord
	s.flushFn = func(_ context.Context, records []cache.ActionRecord) error {
		flushed = append(flushed, records)
		return nil
	}
	t.Cleanup(s.Stop)
	return s, &flushed
}

func record(i int) cache.ActionRecord {
	return cache.ActionRecord{
		GameID:      uuid.New(),
		ActionIndex: i,
		ActorID:     uuid.New(),
		ActionType:  "anagram_steal",
	}
}

func TestBatchFlushesOnSize(t *testing.T) {
	s, flushed := newTestService(t, 3)

	s.append(record(1))
	s.append(record(2))
	assert.Empty(t, *flushed, "batch below threshold stays buffered")

	s.append(record(3))
	require.Len(t, *flushed, 1)
	assert.Len(t, (*flushed)[0], 3)

	s.append(record(4))
	s.flush()
	require.Len(t, *flushed, 2)
	assert.Len(t, (*flushed)[1], 1, "timer flush drains a partial batch")
}

func TestFlushEmptyBatchIsNoop(t *testing.T) {
	s, flushed := newTestService(t, 3)
	s.flush()
	assert.Empty(t, *flushed)
}
