// internal/game/dealer.go
package game

import (
	"context"
	"errors"
	"log"
)

// errBagExhausted terminates the dealer ticker once the bag is empty.
var errBagExhausted = errors.New("bag exhausted")

// startDealer runs the autonomous tile dealer on the game's clock. The
// ticker fires every TickInterval purely so a pause is noticed quickly; a
// letter is only dealt once DealInterval of unpaused time has accumulated.
// Paused ticks do not accrue, so a pause never "owes" a deal on resume. The
// loop terminates permanently on bag exhaustion and never restarts.
func (g *AnagramsGame) startDealer(ctx context.Context) {
	w := g.Clock.TickerFunc(ctx, g.TickInterval, g.dealerTick, "dealer")
	go func() {
		defer close(g.dealerDone)
		if err := w.Wait(); err != nil && !errors.Is(err, errBagExhausted) && !errors.Is(err, context.Canceled) {
			log.Printf("dealer for game %s stopped: %v", g.ID, err)
		}
	}()
}

// dealerTick is invoked serially by the ticker. The pause check holds only a
// shared lock; the deal itself takes the exclusive lock for the minimal
// draw-and-append section, and the new_tile event is emitted after release.
func (g *AnagramsGame) dealerTick() error {
	g.mu.RLock()
	paused := g.paused
	over := g.status == StatusGameOver
	g.mu.RUnlock()
	if over {
		return errBagExhausted
	}
	if paused {
		return nil
	}

	g.dealElapsed += g.TickInterval
	if g.dealElapsed < g.DealInterval {
		return nil
	}
	g.dealElapsed = 0

	g.mu.Lock()
	letter, ok := g.bag.Draw()
	if !ok {
		notice := systemChat("No more tiles remaining.", "info")
		g.appendChatLocked(notice)
		g.mu.Unlock()
		g.emit(envelope(EventChat, notice))
		return errBagExhausted
	}
	g.pot = append(g.pot, letter)
	pot := make([]string, len(g.pot))
	copy(pot, g.pot)
	g.mu.Unlock()

	g.emit(envelope(EventNewTile, pot))
	return nil
}
