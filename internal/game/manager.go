// apps/go-server/internal/game/manager.go
//
// Evil Hangman round manager. Unlike regular hangman the engine never
// commits to a secret word: it tracks every dictionary word still consistent
// with the guesses made so far, and on each guess it partitions that set by
// resulting pattern and adversarially picks which family stays alive.
// Responsibilities:
//   - Hold the immutable word pool (deduplicated, lexicographically sorted).
//   - Run rounds: StartRound, Guess, state queries, SecretWord.
//   - Enforce the API contract via the sentinel errors in types.go.
//
// Notes:
//   - A Manager runs one round at a time and is not safe for concurrent
//     mutation; callers serialize access (see internal/store).
//   - The only non-determinism is SecretWord's pick, injectable via
//     SetRandSource.

package game

import (
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Manager tracks the word pool and the state of the current round.
type Manager struct {
	pool []string // immutable after construction
	rng  *rand.Rand

	active      bool
	wordLen     int
	guessesLeft int
	difficulty  Difficulty
	sel         selector
	pattern     string
	candidates  []string // always non-empty while a round is active
	guessed     map[rune]struct{}
	secret      string // fixed on first resolution after the round ends
}

// NewManager constructs an engine from the provided words. Input is trimmed,
// lowercased, and deduplicated; the pool is kept sorted so that candidate
// iteration (and therefore family word order) is reproducible.
func NewManager(words []string) *Manager {
	seen := make(map[string]struct{}, len(words))
	pool := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		pool = append(pool, w)
	}
	sort.Strings(pool)
	return &Manager{
		pool:    pool,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		guessed: make(map[rune]struct{}),
	}
}

// SetRandSource replaces the source used by SecretWord.
// Tests inject a seeded source for reproducible picks.
func (m *Manager) SetRandSource(r *rand.Rand) {
	if r != nil {
		m.rng = r
	}
}

// WordCount reports how many pool words have exactly the given length.
func (m *Manager) WordCount(length int) int {
	n := 0
	for _, w := range m.pool {
		if runeLen(w) == length {
			n++
		}
	}
	return n
}

// StartRound resets the Manager for a fresh round: candidates become every
// pool word of the given length, the pattern becomes all placeholders, the
// guessed set clears, and the difficulty policy (with its counter) is
// rebuilt. Returns ErrInvalidRound if no pool word has the requested length,
// the budget is below 1, or the difficulty is unknown.
func (m *Manager) StartRound(length, budget int, d Difficulty) error {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return ErrInvalidRound
	}
	if budget < 1 || m.WordCount(length) == 0 {
		return ErrInvalidRound
	}

	cands := make([]string, 0, m.WordCount(length))
	for _, w := range m.pool {
		if runeLen(w) == length {
			cands = append(cands, w)
		}
	}

	m.active = true
	m.wordLen = length
	m.guessesLeft = budget
	m.difficulty = d
	m.sel = newSelector(d)
	m.pattern = strings.Repeat(string(placeholder), length)
	m.candidates = cands
	m.guessed = make(map[rune]struct{})
	m.secret = ""
	return nil
}

// Guess applies a guessed letter to the round. The candidate set is
// partitioned by derived pattern, the difficulty policy picks the surviving
// family, and the round state is updated: candidates shrink to the chosen
// family, the pattern becomes the chosen key, and the guess budget drops by
// one when the chosen pattern does not contain the letter anywhere.
//
// The full partition is returned as pattern → family size, for callers and
// tests; it does not affect state. The caller is expected to check
// AlreadyGuessed first — a duplicate letter is a contract violation. A round
// that is already won or lost accepts no further guesses, so the budget
// never goes negative.
func (m *Manager) Guess(letter rune) (map[string]int, error) {
	if m.State() != "playing" {
		return nil, ErrRoundNotStarted
	}
	letter = unicode.ToLower(letter)
	if _, dup := m.guessed[letter]; dup {
		return nil, ErrAlreadyGuessed
	}
	m.guessed[letter] = struct{}{}

	families := partitionByGuess(m.candidates, m.pattern, letter)
	if len(families) == 0 {
		return nil, ErrEmptyPartition
	}
	ranked := rankPatterns(families)
	chosen := ranked[m.sel.pick(len(ranked))]

	m.candidates = families[chosen]
	m.pattern = chosen
	if !strings.ContainsRune(chosen, letter) {
		m.guessesLeft--
	}

	sizes := make(map[string]int, len(families))
	for k, f := range families {
		sizes[k] = len(f)
	}
	return sizes, nil
}

// CandidateCount reports how many words are still consistent with every
// guess made this round.
func (m *Manager) CandidateCount() int { return len(m.candidates) }

// GuessesLeft reports the remaining wrong-guess budget. Never negative.
func (m *Manager) GuessesLeft() int { return m.guessesLeft }

// WordLength reports the word length of the current round.
func (m *Manager) WordLength() int { return m.wordLen }

// Difficulty reports the difficulty of the current round.
func (m *Manager) Difficulty() Difficulty { return m.difficulty }

// GuessedLetters returns the letters guessed this round in ascending order.
func (m *Manager) GuessedLetters() []rune {
	out := make([]rune, 0, len(m.guessed))
	for r := range m.guessed {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AlreadyGuessed reports whether the letter was guessed this round.
// The check is case-insensitive.
func (m *Manager) AlreadyGuessed(letter rune) bool {
	_, ok := m.guessed[unicode.ToLower(letter)]
	return ok
}

// Pattern returns the current pattern: '-' for unrevealed positions, the
// letter for revealed ones. Errors if no round has been started.
func (m *Manager) Pattern() (string, error) {
	if !m.active {
		return "", ErrRoundNotStarted
	}
	return m.pattern, nil
}

// State reports a coarse string representation of the round state.
// A fully revealed pattern is a win; an exhausted budget is a loss.
func (m *Manager) State() string {
	switch {
	case !m.active:
		return "idle"
	case !strings.ContainsRune(m.pattern, placeholder):
		return "won"
	case m.guessesLeft == 0:
		return "lost"
	default:
		return "playing"
	}
}

// SecretWord retroactively fixes "the" word being guessed: one member of the
// current candidate set, chosen uniformly at random. Candidates stay valid so
// the result is always consistent with every guess made. Once the round has
// terminated the first pick sticks, so repeated queries of a finished round
// all reveal the same word.
func (m *Manager) SecretWord() (string, error) {
	if m.secret != "" {
		return m.secret, nil
	}
	if len(m.candidates) == 0 {
		return "", ErrRoundNotStarted
	}
	w := m.candidates[m.rng.Intn(len(m.candidates))]
	if m.State() != "playing" {
		m.secret = w
	}
	return w, nil
}

// runeLen measures word length in runes so pattern positions line up even
// for non-ASCII input.
func runeLen(s string) int { return len([]rune(s)) }
