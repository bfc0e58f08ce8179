// apps/go-server/internal/words/words.go
//
// Dictionary loading for the hangman engine.
//
// Responsibilities:
//   - Load the word pool from an environment-provided file or fall back to
//     the embedded default dictionary.
//   - Normalize entries (lowercase, trimmed) and drop anything that is not
//     pure ASCII letters of length >= 2.
//   - Expose the pool plus the distinct word lengths available in it.
//
// Environment variables:
//   HANGMAN_WORDS_FILE=/path/to/words.txt   (one word per line, # comments)
//
// Initialization is run once (sync.Once); the pool is immutable afterwards.

package words

import (
	"bufio"
	_ "embed"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
)

//go:embed default_words.txt
var embeddedWords string

const minWordLen = 2

var (
	initOnce   sync.Once
	pool       []string
	lengths    []int
	initialErr error
)

// Init loads the word pool exactly once.
// Returns an error if the pool ends up empty.
func Init() error {
	initOnce.Do(func() {
		var list []string
		if path := os.Getenv("HANGMAN_WORDS_FILE"); path != "" {
			var err error
			list, err = readWordFile(path)
			if err != nil {
				initialErr = err
				return
			}
		} else {
			list = normalizeLines(embeddedWords)
		}

		pool = dedupe(list)
		lengths = distinctLengths(pool)
		if len(pool) == 0 {
			initialErr = errors.New("words: word pool is empty")
		}
	})
	return initialErr
}

// Words returns the loaded pool. Callers must not mutate it.
func Words() []string { return pool }

// Lengths returns the distinct word lengths present in the pool, ascending.
func Lengths() []int { return lengths }

// Stats returns counts of loaded words and distinct lengths.
func Stats() (wordCount int, lengthCount int) {
	return len(pool), len(lengths)
}

// readWordFile loads one word per line from a file,
// keeping only valid entries after normalization.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w, ok := normalizeWord(sc.Text()); ok {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

// normalizeLines processes an embedded multiline string into valid words.
func normalizeLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if w, ok := normalizeWord(line); ok {
			out = append(out, w)
		}
	}
	return out
}

// normalizeWord lowercases and trims a raw line and reports whether it is a
// usable pool entry. Comment lines (#) and anything non-alphabetic or
// shorter than minWordLen are rejected.
func normalizeWord(raw string) (string, bool) {
	w := strings.TrimSpace(strings.ToLower(raw))
	if w == "" || strings.HasPrefix(w, "#") {
		return "", false
	}
	if len(w) < minWordLen || !isAlpha(w) {
		return "", false
	}
	return w, true
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// dedupe sorts the list and removes duplicates.
func dedupe(list []string) []string {
	sort.Strings(list)
	out := list[:0]
	var prev string
	for i, w := range list {
		if i > 0 && w == prev {
			continue
		}
		out = append(out, w)
		prev = w
	}
	return out
}

// distinctLengths collects the sorted set of word lengths in the pool.
func distinctLengths(list []string) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, w := range list {
		if _, ok := seen[len(w)]; ok {
			continue
		}
		seen[len(w)] = struct{}{}
		out = append(out, len(w))
	}
	sort.Ints(out)
	return out
}
