// Package daily derives the deterministic per-date challenge parameters and
// persists challenge results. Everyone gets the same word length (and the
// engine is always at full difficulty) on a given date; fairness comes from
// HMAC(salt, date) so the parameters cannot be predicted without the salt.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Challenge holds the round parameters shared by every player on a date.
type Challenge struct {
	Date       string
	WordLength int
	Budget     int
}

// ChallengeFor derives the challenge for a date from the available word
// lengths. The budget scales gently with length: short words leave less
// room for wrong guesses.
func ChallengeFor(date time.Time, salt string, lengths []int) Challenge {
	c := Challenge{Date: DateKey(date)}
	if len(lengths) == 0 {
		return c
	}
	c.WordLength = lengths[hashIndex(c.Date, salt, len(lengths))]
	c.Budget = 5 + c.WordLength/2
	return c
}

// hashIndex maps HMAC-SHA256(salt, key) onto [0, n).
func hashIndex(key, salt string, n int) int {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(key))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
