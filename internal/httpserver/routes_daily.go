// apps/go-server/internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's round (creates or reuses session)
//   - POST /daily/guess       → submit a letter for today's round
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a date)
//
// Everyone gets the same word length and guess budget on a given date,
// derived from date + salt; the engine always runs at full difficulty.
// Each user can play once per day (enforced by DB + in-memory session).
// Sessions are held in memory for active play and persisted to DB on a win.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/hangman/apps/go-server/internal/daily"
	"github.com/robalobadob/hangman/apps/go-server/internal/game"
	"github.com/robalobadob/hangman/apps/go-server/internal/words"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*dailySession // active sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient in-memory state for an in-progress daily round.
type dailySession struct {
	GameID string
	UserID string
	Date   string
	Round  *game.Manager
	Budget int
	Start  time.Time
	Done   bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		salt:     getEnv("DAILY_SALT", "local_dev_salt"),
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// todaysChallenge derives today's shared round parameters.
func (d *dailyServer) todaysChallenge() daily.Challenge {
	return daily.ChallengeFor(time.Now(), d.salt, words.Lengths())
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return d.srv.ensureAnonID(w, r)
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID      string `json:"gameId"`
	Date        string `json:"date"`
	Played      bool   `json:"played"`
	Pattern     string `json:"pattern,omitempty"`
	GuessesLeft int    `json:"guessesLeft,omitempty"`
}

// handleNew creates or reuses a daily session for the current date.
// - If the user already has a DB row for today → return Played=true.
// - Otherwise create/reuse an in-memory session and return its state.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)
	ch := d.todaysChallenge()
	if ch.WordLength == 0 {
		http.Error(w, `{"error":"no_words"}`, http.StatusInternalServerError)
		return
	}

	// Check if already played (persisted in DB).
	if played, err := d.store.AlreadyPlayed(r.Context(), uid, ch.Date); err == nil && played {
		_ = json.NewEncoder(w).Encode(dailyNewRes{Date: ch.Date, Played: true})
		return
	}

	// Reuse or create session in memory.
	key := uid + "|" + ch.Date
	d.mu.Lock()
	defer d.mu.Unlock()
	if sess, ok := d.sessions[key]; ok {
		pattern, _ := sess.Round.Pattern()
		_ = json.NewEncoder(w).Encode(dailyNewRes{
			GameID: sess.GameID, Date: ch.Date,
			Pattern: pattern, GuessesLeft: sess.Round.GuessesLeft(),
		})
		return
	}

	m := game.NewManager(words.Words())
	if err := m.StartRound(ch.WordLength, ch.Budget, game.DifficultyHard); err != nil {
		http.Error(w, `{"error":"invalid_round"}`, http.StatusInternalServerError)
		return
	}
	sess := &dailySession{
		GameID: genID(),
		UserID: uid,
		Date:   ch.Date,
		Round:  m,
		Budget: ch.Budget,
		Start:  time.Now(),
	}
	d.sessions[key] = sess

	pattern, _ := m.Pattern()
	_ = json.NewEncoder(w).Encode(dailyNewRes{
		GameID: sess.GameID, Date: ch.Date,
		Pattern: pattern, GuessesLeft: m.GuessesLeft(),
	})
}

// -----------------------------------------------------------------------------
// /daily/guess

// dailyGuessReq is the request payload for /daily/guess.
type dailyGuessReq struct {
	GameID string `json:"gameId"`
	Letter string `json:"letter"`
}

// dailyGuessRes is the response payload for /daily/guess.
type dailyGuessRes struct {
	Pattern     string   `json:"pattern"`
	Guessed     []string `json:"guessed"`
	GuessesLeft int      `json:"guessesLeft"`
	State       string   `json:"state"` // playing | won | lost | locked
	Word        string   `json:"word,omitempty"`
}

// handleGuess validates and applies a letter for today's daily session.
// - Rejects if no session, wrong GameID, or session finished.
// - Duplicate letters are rejected before touching the engine.
// - Persists the result to DB on a win.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)

	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	letter, ok := singleLetter(p.Letter)
	if !ok || p.GameID == "" {
		http.Error(w, `{"error":"invalid"}`, http.StatusBadRequest)
		return
	}

	ch := d.todaysChallenge()
	key := uid + "|" + ch.Date
	d.mu.Lock()
	defer d.mu.Unlock()
	sess, found := d.sessions[key]
	if !found || sess.GameID != p.GameID {
		http.Error(w, `{"error":"no_session"}`, http.StatusConflict)
		return
	}
	if sess.Done {
		_ = json.NewEncoder(w).Encode(dailyGuessRes{State: "locked"})
		return
	}
	m := sess.Round
	if m.AlreadyGuessed(letter) {
		http.Error(w, `{"error":"already_guessed"}`, http.StatusBadRequest)
		return
	}
	if _, err := m.Guess(letter); err != nil {
		http.Error(w, `{"error":"guess_failed"}`, http.StatusBadRequest)
		return
	}

	pattern, _ := m.Pattern()
	res := dailyGuessRes{
		Pattern:     pattern,
		GuessesLeft: m.GuessesLeft(),
		State:       m.State(),
	}
	for _, g := range m.GuessedLetters() {
		res.Guessed = append(res.Guessed, string(g))
	}

	switch res.State {
	case "won":
		sess.Done = true
		if word, err := m.SecretWord(); err == nil {
			res.Word = word
		}
		elapsed := int(time.Since(sess.Start).Milliseconds())
		_ = d.store.InsertResult(r.Context(), daily.Result{
			UserID:       uid,
			Date:         ch.Date,
			WordLength:   ch.WordLength,
			WrongGuesses: sess.Budget - m.GuessesLeft(),
			ElapsedMs:    elapsed,
		})
	case "lost":
		sess.Done = true
		if word, err := m.SecretWord(); err == nil {
			res.Word = word
		}
	}
	_ = json.NewEncoder(w).Encode(res)
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = d.todaysChallenge().Date
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
