// internal/game/errors.go
package game

import "errors"

// All engine rejections are locally recoverable: they surface as System chat
// messages plus a result event, never terminate the game, and never leave a
// partial mutation behind.
var (
	ErrGamePaused             = errors.New("Game is paused.")
	ErrChallengeInProgress    = errors.New("Cannot take words during a challenge.")
	ErrWordTooShort           = errors.New("Word must be at least 3 characters long.")
	ErrWordNotInDictionary    = errors.New("Word not in dictionary.")
	ErrNoEligiblePlayers      = errors.New("No players to take from.")
	ErrWordCannotBeTaken      = errors.New("That word cannot be taken.")
	ErrNoActiveChallenge      = errors.New("No active challenge.")
	ErrChallengeAlreadyActive = errors.New("A challenge is already in progress.")
	ErrNoMoveToChallenge      = errors.New("No move to challenge.")
	ErrUnknownPlayer          = errors.New("Unknown player.")
)
