package daily

import (
	"context"
	"database/sql"
)

// Result is one user's finished daily round.
type Result struct {
	UserID       string `json:"userId"`
	Date         string `json:"date"`
	WordLength   int    `json:"wordLength"`
	WrongGuesses int    `json:"wrongGuesses"`
	ElapsedMs    int    `json:"elapsedMs"`
}

// Store persists daily results to SQLite.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether the user has a persisted result for the date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?`,
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records a finished daily round.
// Respects UNIQUE(user_id, date); duplicate inserts are ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, word_length, wrong_guesses, elapsed_ms)
		 VALUES(?,?,?,?,?)`, r.UserID, r.Date, r.WordLength, r.WrongGuesses, r.ElapsedMs,
	)
	return err
}

// LBRow is one leaderboard entry.
type LBRow struct {
	UserID       string `json:"userId"`
	WrongGuesses int    `json:"wrongGuesses"`
	ElapsedMs    int    `json:"elapsedMs"`
}

// Leaderboard returns the top results for a date: fewest wrong guesses
// first, then fastest, then earliest submission.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, wrong_guesses, elapsed_ms
		 FROM daily_results
		 WHERE date=?
		 ORDER BY wrong_guesses ASC, elapsed_ms ASC, created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LBRow
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.WrongGuesses, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
