// apps/go-server/internal/game/partition.go
//
// Pure helpers for the partition step of a guess:
//   - partitionByGuess: group candidate words by the pattern each would reveal.
//   - rankPatterns: order family keys hardest-first with a deterministic
//     tie-break.
//
// Neither function touches Manager state.

package game

import "sort"

// placeholder marks an unrevealed position in a pattern.
const placeholder = '-'

// partitionByGuess groups candidates by the pattern each one would produce
// if it were the secret word and g had just been guessed. Position i of a
// word's derived pattern is g where the word has g at i, and the current
// pattern's character at i otherwise. Every candidate lands in exactly one
// family; family word order follows candidate order.
func partitionByGuess(candidates []string, pattern string, g rune) map[string][]string {
	families := make(map[string][]string)
	pat := []rune(pattern)
	for _, w := range candidates {
		derived := make([]rune, len(pat))
		for i, r := range []rune(w) {
			if r == g {
				derived[i] = g
			} else {
				derived[i] = pat[i]
			}
		}
		key := string(derived)
		families[key] = append(families[key], w)
	}
	return families
}

// rankPatterns returns the family keys ordered hardest-first: descending
// family size, equal sizes broken by ascending pattern string. The explicit
// tie-break keeps round outcomes reproducible across runs.
func rankPatterns(families map[string][]string) []string {
	keys := make([]string, 0, len(families))
	for k := range families {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := len(families[keys[i]]), len(families[keys[j]])
		if a != b {
			return a > b
		}
		return keys[i] < keys[j]
	})
	return keys
}
