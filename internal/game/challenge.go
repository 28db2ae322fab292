// internal/game/challenge.go
package game

import (
	"fmt"

	"github.com/google/uuid"
)

// The challenge coordinator is a two-state machine (idle, active) over the
// shared game state. Starting a challenge pauses the game; every vote
// re-tallies against two independent thresholds on the current roster size
// N: the challenge succeeds once challenge-votes >= ceil(N/2), the move is
// upheld once maintain-votes >= floor(N/2)+1. The success threshold is
// checked first. Resolution reverts or confirms the LastMove atomically and
// resumes play.

// StartChallenge transitions idle -> active on behalf of challengerID, who
// is automatically recorded as a challenge vote.
func (g *AnagramsGame) StartChallenge(challengerID uuid.UUID) error {
	g.mu.Lock()

	if g.lastMove == nil {
		g.mu.Unlock()
		return ErrNoMoveToChallenge
	}
	if g.activeChallenge {
		g.mu.Unlock()
		return ErrChallengeAlreadyActive
	}

	g.activeChallenge = true
	g.paused = true
	g.status = StatusChallenge
	g.votes = make(map[uuid.UUID]bool)
	g.votes[challengerID] = true

	name := g.playerNameLocked(challengerID)
	g.appendChatLocked(systemChat(
		fmt.Sprintf("%s has challenged the last move! Type /challenge to agree or /maintain to disagree. Game is paused.", name),
		"info"))
	snap := g.snapshotLocked(EventChallengeStarted)

	// The challenger's own vote can already settle it (e.g. a one-player
	// roster reaches ceil(1/2) immediately).
	res := g.tallyLocked()
	g.mu.Unlock()

	g.emit(snap)
	g.logAction(challengerID, "challenge_start", nil)
	g.finishResolution(res)
	return nil
}

// VoteChallenge records one vote while a challenge is active. Repeat voters
// overwrite their previous vote; the tally is recomputed after every vote.
func (g *AnagramsGame) VoteChallenge(playerID uuid.UUID, challenge bool) error {
	g.mu.Lock()

	if !g.activeChallenge {
		g.mu.Unlock()
		return ErrNoActiveChallenge
	}

	g.votes[playerID] = challenge

	name := g.playerNameLocked(playerID)
	voteText := "maintain"
	if challenge {
		voteText = "challenge"
	}
	notice := systemChat(fmt.Sprintf("%s voted to %s.", name, voteText), "info")
	g.appendChatLocked(notice)

	res := g.tallyLocked()
	g.mu.Unlock()

	g.emit(envelope(EventChat, notice))
	g.logAction(playerID, "challenge_vote", map[string]interface{}{"challenge": challenge})
	g.finishResolution(res)
	return nil
}

// resolution carries the post-lock broadcast of a settled challenge.
type resolution struct {
	settled bool
	snap    Message
}

// tallyLocked checks both thresholds and, if one is met, resolves the
// challenge in place. Caller holds the write lock.
func (g *AnagramsGame) tallyLocked() resolution {
	if !g.activeChallenge {
		return resolution{}
	}

	// N is the roster size at the time of this tally; a player joining
	// mid-challenge raises the bar for the votes still outstanding.
	total := len(g.players)
	challengeVotes := 0
	for _, v := range g.votes {
		if v {
			challengeVotes++
		}
	}
	maintainVotes := len(g.votes) - challengeVotes

	challengeThreshold := (total + 1) / 2
	maintainThreshold := total/2 + 1

	switch {
	case challengeVotes >= challengeThreshold:
		return g.resolveLocked(true)
	case maintainVotes >= maintainThreshold:
		return g.resolveLocked(false)
	default:
		return resolution{}
	}
}

// resolveLocked transitions active -> idle. On success the LastMove is
// reversed exactly: the taken word leaves the attacker's board, the stolen
// word (if any) returns to the victim's board, and the pot is restored to
// its captured pre-move value. Either way the undo record is cleared and
// play resumes. Caller holds the write lock.
func (g *AnagramsGame) resolveLocked(succeeded bool) resolution {
	g.activeChallenge = false
	g.paused = false
	g.status = StatusInProgress

	if succeeded {
		if mv := g.lastMove; mv != nil {
			if attacker := g.boardOfLocked(mv.AttackerID); attacker != nil {
				attacker.removeWord(mv.WordTaken)
			}
			if mv.VictimID != uuid.Nil && mv.WordStolen != "" {
				if victim := g.boardOfLocked(mv.VictimID); victim != nil {
					victim.addWord(mv.WordStolen)
				}
			}
			g.pot = mv.OldPot
		}
		g.appendChatLocked(systemChat("Challenge succeeded! The last move has been reverted. Game resumed.", "success"))
	} else {
		g.appendChatLocked(systemChat("Challenge failed! The move stands. Game resumed.", "info"))
	}
	g.lastMove = nil

	return resolution{settled: true, snap: g.snapshotLocked(EventChallengeResolved)}
}

func (g *AnagramsGame) finishResolution(r resolution) {
	if !r.settled {
		return
	}
	g.emit(r.snap)
	g.logAction(uuid.Nil, "challenge_resolved", nil)
}

// ChallengeActive reports whether a challenge is pending.
func (g *AnagramsGame) ChallengeActive() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.activeChallenge
}

func (g *AnagramsGame) playerNameLocked(id uuid.UUID) string {
	for _, p := range g.players {
		if p.ID == id {
			return p.Name
		}
	}
	return "Unknown"
}
