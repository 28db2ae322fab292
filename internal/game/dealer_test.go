// internal/game/dealer_test.go
package game

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snatchgame/snatch/internal/words"
)

// setupDealerGame builds a game on a mock clock with short intervals: one
// deal per five ticks.
func setupDealerGame(t *testing.T) (*AnagramsGame, *quartz.Mock, *mockBroadcaster) {
	t.Helper()

	g := NewAnagramsGame("dealer-test", testDictionary(), words.SuffixEquivalence{})
	mockClock := quartz.NewMock(t)
	g.Clock = mockClock
	g.TickInterval = time.Millisecond
	g.DealInterval = 5 * time.Millisecond

	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn
	g.Join("alice")
	mb.clear()

	g.Start()
	t.Cleanup(g.Stop)
	return g, mockClock, mb
}

func advanceTicks(ctx context.Context, mockClock *quartz.Mock, g *AnagramsGame, n int) {
	for i := 0; i < n; i++ {
		mockClock.Advance(g.TickInterval).MustWait(ctx)
	}
}

func TestDealerDealsOnInterval(t *testing.T) {
	ctx := context.Background()
	g, mockClock, mb := setupDealerGame(t)

	startPot := len(g.Pot())
	startBag := g.BagRemaining()

	advanceTicks(ctx, mockClock, g, 4)
	assert.Len(t, g.Pot(), startPot, "no deal before the interval accumulates")

	advanceTicks(ctx, mockClock, g, 1)
	assert.Len(t, g.Pot(), startPot+1)
	assert.Equal(t, startBag-1, g.BagRemaining())
	require.NotNil(t, mb.lastOfKind(EventNewTile))

	advanceTicks(ctx, mockClock, g, 5)
	assert.Len(t, g.Pot(), startPot+2)
}

func TestDealerPausedTicksDoNotAccrue(t *testing.T) {
	ctx := context.Background()
	g, mockClock, mb := setupDealerGame(t)

	startPot := len(g.Pot())

	// Three ticks of progress, then a long pause.
	advanceTicks(ctx, mockClock, g, 3)
	g.TogglePause()
	advanceTicks(ctx, mockClock, g, 20)
	assert.Len(t, g.Pot(), startPot, "paused time never deals")
	assert.Nil(t, mb.lastOfKind(EventNewTile))

	// Resume: the three pre-pause ticks still count, two more complete the
	// interval.
	g.TogglePause()
	advanceTicks(ctx, mockClock, g, 2)
	assert.Len(t, g.Pot(), startPot+1)
}

func TestDealerStopsOnExhaustion(t *testing.T) {
	ctx := context.Background()
	g, mockClock, mb := setupDealerGame(t)

	g.mu.Lock()
	g.bag = &Bag{letters: []string{"z"}}
	g.mu.Unlock()

	advanceTicks(ctx, mockClock, g, 5)
	assert.Contains(t, g.Pot(), "z")

	// The next deal finds the bag empty, announces it, and terminates the
	// ticker for good.
	advanceTicks(ctx, mockClock, g, 5)
	ev := mb.lastOfKind(EventChat)
	require.NotNil(t, ev)
	assert.Contains(t, ev.Data, "No more tiles remaining.")

	select {
	case <-g.dealerDone:
	case <-time.After(time.Second):
		t.Fatal("dealer goroutine did not terminate after exhaustion")
	}
}

func TestDealerStopsOnGameOver(t *testing.T) {
	ctx := context.Background()
	g, mockClock, _ := setupDealerGame(t)

	advanceTicks(ctx, mockClock, g, 2)
	g.EndGame()

	select {
	case <-g.dealerDone:
	case <-time.After(time.Second):
		t.Fatal("dealer goroutine did not terminate after game over")
	}
}
