package game

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func newTestManager(t *testing.T, words []string) *Manager {
	t.Helper()
	m := NewManager(words)
	m.SetRandSource(rand.New(rand.NewSource(1)))
	return m
}

func mustStart(t *testing.T, m *Manager, length, budget int, d Difficulty) {
	t.Helper()
	if err := m.StartRound(length, budget, d); err != nil {
		t.Fatalf("StartRound(%d, %d, %s): %v", length, budget, d, err)
	}
}

func mustGuess(t *testing.T, m *Manager, letter rune) map[string]int {
	t.Helper()
	families, err := m.Guess(letter)
	if err != nil {
		t.Fatalf("Guess(%q): %v", letter, err)
	}
	return families
}

func TestNewManagerNormalizesPool(t *testing.T) {
	m := NewManager([]string{"Zebra", "apple", " apple ", "zebra", "", "cat"})
	if got := m.WordCount(5); got != 2 { // apple, zebra
		t.Errorf("WordCount(5) = %d, want 2", got)
	}
	if got := m.WordCount(3); got != 1 {
		t.Errorf("WordCount(3) = %d, want 1", got)
	}
	if got := m.WordCount(7); got != 0 {
		t.Errorf("WordCount(7) = %d, want 0", got)
	}
}

func TestStartRoundValidation(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		budget  int
		diff    Difficulty
		wantErr bool
	}{
		{"ok", 3, 5, DifficultyHard, false},
		{"no words of length", 9, 5, DifficultyHard, true},
		{"zero budget", 3, 0, DifficultyHard, true},
		{"negative budget", 3, -1, DifficultyEasy, true},
		{"unknown difficulty", 3, 5, Difficulty("brutal"), true},
		{"minimal budget", 3, 1, DifficultyMedium, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, []string{"cat", "can", "cap"})
			err := m.StartRound(tt.length, tt.budget, tt.diff)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRound) {
					t.Errorf("StartRound() err = %v, want ErrInvalidRound", err)
				}
				return
			}
			if err != nil {
				t.Errorf("StartRound() err = %v", err)
			}
		})
	}
}

func TestQueriesBeforeStart(t *testing.T) {
	m := newTestManager(t, []string{"cat"})
	if _, err := m.Pattern(); !errors.Is(err, ErrRoundNotStarted) {
		t.Errorf("Pattern() err = %v, want ErrRoundNotStarted", err)
	}
	if _, err := m.Guess('a'); !errors.Is(err, ErrRoundNotStarted) {
		t.Errorf("Guess() err = %v, want ErrRoundNotStarted", err)
	}
	if _, err := m.SecretWord(); !errors.Is(err, ErrRoundNotStarted) {
		t.Errorf("SecretWord() err = %v, want ErrRoundNotStarted", err)
	}
	if got := m.State(); got != "idle" {
		t.Errorf("State() = %q, want idle", got)
	}
}

// Full hard-difficulty round over {cat, can, cap}: the engine must keep the
// largest family, break the size-1 tie lexicographically, and only burn
// budget when the chosen pattern lacks the guessed letter.
func TestHardRoundAdversarialWalkthrough(t *testing.T) {
	m := newTestManager(t, []string{"cat", "can", "cap"})
	mustStart(t, m, 3, 5, DifficultyHard)

	if p, _ := m.Pattern(); p != "---" {
		t.Fatalf("initial pattern = %q, want ---", p)
	}
	if got := m.CandidateCount(); got != 3 {
		t.Fatalf("CandidateCount() = %d, want 3", got)
	}

	// 'a' is in every word at position 1: single family, no budget spent.
	families := mustGuess(t, m, 'a')
	if want := map[string]int{"-a-": 3}; !reflect.DeepEqual(families, want) {
		t.Errorf("families after 'a' = %v, want %v", families, want)
	}
	if p, _ := m.Pattern(); p != "-a-" {
		t.Errorf("pattern = %q, want -a-", p)
	}
	if m.GuessesLeft() != 5 {
		t.Errorf("GuessesLeft() = %d, want 5", m.GuessesLeft())
	}

	// 't' splits 1/2: hard keeps the larger "-a-" family and burns a guess.
	families = mustGuess(t, m, 't')
	if want := map[string]int{"-at": 1, "-a-": 2}; !reflect.DeepEqual(families, want) {
		t.Errorf("families after 't' = %v, want %v", families, want)
	}
	if m.CandidateCount() != 2 || m.GuessesLeft() != 4 {
		t.Errorf("after 't': candidates=%d guesses=%d, want 2/4", m.CandidateCount(), m.GuessesLeft())
	}

	// 'n' splits 1/1: the tie breaks to "-a-" (lexicographically first).
	mustGuess(t, m, 'n')
	if p, _ := m.Pattern(); p != "-a-" {
		t.Errorf("pattern after 'n' = %q, want -a- (tie-break)", p)
	}
	if m.CandidateCount() != 1 || m.GuessesLeft() != 3 {
		t.Errorf("after 'n': candidates=%d guesses=%d, want 1/3", m.CandidateCount(), m.GuessesLeft())
	}

	// 'p' then 'c' reveal the only survivor; neither burns budget.
	mustGuess(t, m, 'p')
	if p, _ := m.Pattern(); p != "-ap" {
		t.Fatalf("pattern after 'p' = %q, want -ap", p)
	}
	mustGuess(t, m, 'c')
	if p, _ := m.Pattern(); p != "cap" {
		t.Errorf("pattern = %q, want cap", p)
	}
	if got := m.State(); got != "won" {
		t.Errorf("State() = %q, want won", got)
	}
	word, err := m.SecretWord()
	if err != nil {
		t.Fatalf("SecretWord(): %v", err)
	}
	if word != "cap" {
		t.Errorf("SecretWord() = %q, want cap", word)
	}
}

func TestGuessCaseNormalization(t *testing.T) {
	m := newTestManager(t, []string{"cat", "can", "cap"})
	mustStart(t, m, 3, 5, DifficultyHard)

	mustGuess(t, m, 'A')
	if p, _ := m.Pattern(); p != "-a-" {
		t.Errorf("pattern = %q, want -a- after uppercase guess", p)
	}
	if !m.AlreadyGuessed('a') || !m.AlreadyGuessed('A') {
		t.Error("AlreadyGuessed should match either case")
	}
	if _, err := m.Guess('a'); !errors.Is(err, ErrAlreadyGuessed) {
		t.Errorf("repeat guess err = %v, want ErrAlreadyGuessed", err)
	}
}

func TestGuessedLettersSorted(t *testing.T) {
	m := newTestManager(t, []string{"sprout", "sprint", "shrink"})
	mustStart(t, m, 6, 8, DifficultyHard)
	for _, r := range "tsar" {
		mustGuess(t, m, r)
	}
	got := m.GuessedLetters()
	want := []rune{'a', 'r', 's', 't'}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GuessedLetters() = %q, want %q", string(got), string(want))
	}
}

// Every guess must keep the budget non-increasing, decrementing exactly when
// the chosen pattern excludes the letter, and the candidate set non-empty.
func TestGuessBudgetMonotonicity(t *testing.T) {
	words := []string{
		"apple", "angle", "amble", "ample", "agile",
		"bread", "break", "bream", "broad", "brand",
		"crane", "crate", "craze", "crepe", "crime",
	}
	m := newTestManager(t, words)
	mustStart(t, m, 5, 10, DifficultyHard)

	prev := m.GuessesLeft()
	for _, letter := range "etaoinshrdlcumw" {
		if m.State() != "playing" {
			break
		}
		if m.AlreadyGuessed(letter) {
			continue
		}
		if _, err := m.Guess(letter); err != nil {
			t.Fatalf("Guess(%q): %v", letter, err)
		}
		p, _ := m.Pattern()
		left := m.GuessesLeft()
		if left < 0 {
			t.Fatalf("GuessesLeft() went negative: %d", left)
		}
		wantDrop := 0
		if !containsRune(p, letter) {
			wantDrop = 1
		}
		if prev-left != wantDrop {
			t.Fatalf("guess %q: budget dropped %d, want %d (pattern %q)", letter, prev-left, wantDrop, p)
		}
		if m.CandidateCount() == 0 {
			t.Fatalf("guess %q left zero candidates", letter)
		}
		prev = left
	}
}

func containsRune(s string, r rune) bool {
	for _, x := range s {
		if x == r {
			return true
		}
	}
	return false
}

// EASY eases off on every 2nd guess: with two families of unequal size, the
// 2nd guess of the round must keep the second-hardest family.
func TestEasyDifficultyEasesEverySecondGuess(t *testing.T) {
	// Length-4 words chosen so 'a' then 'e' both split into a big family and
	// a small one.
	words := []string{"tree", "free", "flee", "glee", "grab"}
	m := newTestManager(t, words)
	mustStart(t, m, 4, 10, DifficultyEasy)

	// Guess 1 (counter 1, odd): hardest family wins. 'a' only in "grab":
	// families ---- (4 words) and --a- (1). Keep ----.
	mustGuess(t, m, 'a')
	if p, _ := m.Pattern(); p != "----" {
		t.Fatalf("pattern after 'a' = %q, want ----", p)
	}
	if m.CandidateCount() != 4 {
		t.Fatalf("candidates = %d, want 4", m.CandidateCount())
	}

	// Guess 2 (counter 2, eases): all four remaining words end "ee" and have
	// no other 'e', so 'e' yields the single family --ee. Easing has nothing
	// to concede; the index clamps back to it.
	families := mustGuess(t, m, 'e')
	if len(families) != 1 {
		t.Fatalf("families after 'e' = %v, want a single family", families)
	}
	if p, _ := m.Pattern(); p != "--ee" {
		t.Fatalf("pattern after 'e' = %q, want --ee", p)
	}

	// Guess 3 (counter 3, odd): 'r' splits -ree (tree, free) from --ee
	// (flee, glee) — a 2/2 tie; hardest-first tie-break keeps --ee.
	mustGuess(t, m, 'r')
	if p, _ := m.Pattern(); p != "--ee" {
		t.Fatalf("pattern after 'r' = %q, want --ee", p)
	}

	// Guess 4 (counter 4, eases): 'l' splits flee (-lee) and glee (-lee)...
	// both contain 'l' at position 1 → single family -lee; clamp again.
	mustGuess(t, m, 'l')
	if p, _ := m.Pattern(); p != "-lee" {
		t.Fatalf("pattern after 'l' = %q, want -lee", p)
	}
}

// The easing kick-in is observable when the eased guess actually has more
// than one family: seed a round where guess 2 splits unevenly.
func TestEasySelectorPrefersSecondHardestOnCycle(t *testing.T) {
	sel := newSelector(DifficultyEasy)
	picks := []struct {
		ranked int
		want   int
	}{
		{ranked: 3, want: 0}, // guess 1: hardest
		{ranked: 3, want: 1}, // guess 2: second-hardest
		{ranked: 3, want: 0}, // guess 3
		{ranked: 1, want: 0}, // guess 4: would ease, but only one family
		{ranked: 3, want: 0}, // guess 5
		{ranked: 2, want: 1}, // guess 6: eases again
	}
	for i, tt := range picks {
		if got := sel.pick(tt.ranked); got != tt.want {
			t.Errorf("easy pick #%d (ranked %d) = %d, want %d", i+1, tt.ranked, got, tt.want)
		}
	}
}

func TestMediumSelectorEasesEveryFourthGuess(t *testing.T) {
	sel := newSelector(DifficultyMedium)
	wants := []int{0, 0, 0, 1, 0, 0, 0, 1}
	for i, want := range wants {
		if got := sel.pick(4); got != want {
			t.Errorf("medium pick #%d = %d, want %d", i+1, got, want)
		}
	}
}

func TestHardSelectorNeverEases(t *testing.T) {
	sel := newSelector(DifficultyHard)
	for i := 0; i < 16; i++ {
		if got := sel.pick(5); got != 0 {
			t.Fatalf("hard pick #%d = %d, want 0", i+1, got)
		}
	}
}

func TestSelectorsResetPerRound(t *testing.T) {
	m := newTestManager(t, []string{"tree", "free", "flee", "glee", "grab"})

	// Two rounds in a row; if the easing counter leaked across rounds, the
	// first guess of round two would behave like a later guess.
	for round := 0; round < 2; round++ {
		mustStart(t, m, 4, 10, DifficultyEasy)
		mustGuess(t, m, 'a')
		if p, _ := m.Pattern(); p != "----" {
			t.Fatalf("round %d: pattern after first guess = %q, want ---- (hardest family)", round+1, p)
		}
	}
}

func TestSecretWordIsAlwaysACandidate(t *testing.T) {
	words := []string{"stone", "store", "stove", "stole", "shore"}
	for seed := int64(0); seed < 20; seed++ {
		m := NewManager(words)
		m.SetRandSource(rand.New(rand.NewSource(seed)))
		mustStart(t, m, 5, 6, DifficultyHard)
		mustGuess(t, m, 's')
		mustGuess(t, m, 't')

		candidates := map[string]bool{}
		for _, w := range words {
			candidates[w] = true
		}
		word, err := m.SecretWord()
		if err != nil {
			t.Fatalf("seed %d: SecretWord(): %v", seed, err)
		}
		if !candidates[word] {
			t.Fatalf("seed %d: SecretWord() = %q, not in pool", seed, word)
		}
		// Must still be consistent with the pattern.
		p, _ := m.Pattern()
		for i, r := range p {
			if r == placeholder {
				continue
			}
			if []rune(word)[i] != r {
				t.Fatalf("seed %d: SecretWord() %q inconsistent with pattern %q", seed, word, p)
			}
		}
	}
}

func TestLostRoundStillResolvesSecret(t *testing.T) {
	m := newTestManager(t, []string{"cat", "can", "cap"})
	mustStart(t, m, 3, 1, DifficultyHard)

	// 'z' hits nothing: single all-placeholder family, budget 1 → 0.
	mustGuess(t, m, 'z')
	if got := m.State(); got != "lost" {
		t.Fatalf("State() = %q, want lost", got)
	}
	if _, err := m.SecretWord(); err != nil {
		t.Errorf("SecretWord() after loss: %v", err)
	}
	// Terminal rounds accept no further guesses, so the budget stays at 0.
	if _, err := m.Guess('q'); !errors.Is(err, ErrRoundNotStarted) {
		t.Errorf("guess after loss err = %v, want ErrRoundNotStarted", err)
	}
	if m.GuessesLeft() != 0 {
		t.Errorf("GuessesLeft() = %d, want 0", m.GuessesLeft())
	}
}

// A lost round keeps multiple candidates alive, so resolution must commit to
// one word and keep revealing it on every later query.
func TestSecretWordFixedOnceRoundEnds(t *testing.T) {
	m := newTestManager(t, []string{"cat", "can", "cap", "cab", "cad"})
	mustStart(t, m, 3, 1, DifficultyHard)
	mustGuess(t, m, 'z')
	if got := m.State(); got != "lost" {
		t.Fatalf("State() = %q, want lost", got)
	}
	if m.CandidateCount() < 2 {
		t.Fatalf("CandidateCount() = %d, want several survivors", m.CandidateCount())
	}

	first, err := m.SecretWord()
	if err != nil {
		t.Fatalf("SecretWord(): %v", err)
	}
	for i := 0; i < 50; i++ {
		w, err := m.SecretWord()
		if err != nil {
			t.Fatalf("SecretWord() call %d: %v", i+2, err)
		}
		if w != first {
			t.Fatalf("SecretWord() call %d = %q, want %q (resolution must be stable)", i+2, w, first)
		}
	}

	// A fresh round resolves anew.
	mustStart(t, m, 3, 1, DifficultyHard)
	mustGuess(t, m, 'q')
	if _, err := m.SecretWord(); err != nil {
		t.Fatalf("SecretWord() after restart: %v", err)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"easy", DifficultyEasy, false},
		{"MEDIUM", DifficultyMedium, false},
		{" hard ", DifficultyHard, false},
		{"", "", true},
		{"nightmare", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDifficulty(%q) err = nil, want error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
