// apps/go-server/internal/game/types.go
//
// Core type definitions for the Evil Hangman engine.
// Defines:
//   - Difficulty: closed set of round difficulties (easy/medium/hard).
//   - selector: per-difficulty policy for picking the surviving pattern family.
//   - Sentinel errors for contract violations by the caller.

package game

import (
	"errors"
	"strings"
)

// Difficulty controls how adversarial the engine is when choosing which
// pattern family survives a guess. HARD always keeps the hardest (largest)
// family; EASY and MEDIUM periodically ease off to the second-hardest.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty converts a request string into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", ErrInvalidRound
}

// All engine errors are precondition violations by the caller, surfaced
// immediately and never retried internally.
var (
	// ErrRoundNotStarted: round queries or guesses before StartRound.
	ErrRoundNotStarted = errors.New("game: round not started")
	// ErrAlreadyGuessed: Guess called with a letter guessed earlier this round.
	ErrAlreadyGuessed = errors.New("game: letter already guessed")
	// ErrEmptyPartition: partitioning produced no families. Unreachable while
	// the candidate-set invariant holds; kept as a guard.
	ErrEmptyPartition = errors.New("game: empty pattern partition")
	// ErrInvalidRound: StartRound with no pool words of the requested length,
	// a non-positive guess budget, or an unknown difficulty.
	ErrInvalidRound = errors.New("game: invalid round setup")
)

// selector picks an index into the ranked (hardest-first) pattern list.
// Implementations may carry a per-round counter; pick is called exactly once
// per guess and advances it. Selectors are created fresh on StartRound so no
// state leaks across rounds.
type selector interface {
	pick(ranked int) int
}

// hardSelector always keeps the hardest family.
type hardSelector struct{}

func (hardSelector) pick(int) int { return 0 }

// cycleSelector keeps the hardest family except on every cycle-th guess,
// when it concedes the nth-hardest one instead (if the ranking has that
// many entries). The returned index is clamped to the ranking.
type cycleSelector struct {
	cycle int
	nth   int
	made  int // guesses made this round
}

func (s *cycleSelector) pick(ranked int) int {
	s.made++
	idx := 0
	if s.made%s.cycle == 0 && ranked > s.nth {
		idx = s.nth
	}
	if idx > ranked-1 {
		idx = ranked - 1
	}
	return idx
}

const (
	easyCycle   = 2
	mediumCycle = 4
	nthHardest  = 1
)

// newSelector maps a difficulty onto its selection policy.
func newSelector(d Difficulty) selector {
	switch d {
	case DifficultyEasy:
		return &cycleSelector{cycle: easyCycle, nth: nthHardest}
	case DifficultyMedium:
		return &cycleSelector{cycle: mediumCycle, nth: nthHardest}
	default:
		return hardSelector{}
	}
}
