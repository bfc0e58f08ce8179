// apps/go-server/internal/httpserver/server.go
//
// HTTP server wiring for the Evil Hangman backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     one OTel span per request).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Round endpoints (optional auth): POST /game/new, POST /game/guess,
//     GET /game/{gameID}.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine (auth.go).
//   - Database persistence for finished rounds and user stats.
//
// Notes:
//   - The engine itself never renders anything; handlers translate round
//     state into JSON and map engine contract errors onto 4xx responses.
//   - Active rounds live only in the store; the DB sees results.

package httpserver

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hangman/apps/go-server/internal/game"
	"github.com/robalobadob/hangman/apps/go-server/internal/store"
	"github.com/robalobadob/hangman/apps/go-server/internal/telemetry"
	"github.com/robalobadob/hangman/apps/go-server/internal/words"
)

const (
	defaultGuessBudget = 8
	anonCookieName     = "hangman_anon"
)

// Server bundles router, in-memory session store, and DB handle.
type Server struct {
	r     *chi.Mux
	store store.Store
	db    *sql.DB
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), store: st, db: db}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(traceRequests)                   // one span per request
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"hangman-go","endpoints":["/health","POST /game/new","POST /game/guess","GET /game/{gameID}","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		wc, lc := words.Stats()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"words": wc, "lengths": lc, "offered": words.Lengths(),
		})
	})

	// Round endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/game/new", s.handleNewGame)
	s.r.With(s.withOptionalAuth()).Post("/game/guess", s.handleGuess)
	s.r.With(s.withOptionalAuth()).Get("/game/{gameID}", s.handleGameState)

	// Daily Challenge — OPTIONAL AUTH (guests play; result persisted on finish)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// traceRequests opens an OTel span per request. With no provider configured
// (main only calls telemetry.Setup when OTEL_* env vars are present) the
// global tracer is a noop and this costs nothing.
func traceRequests(next http.Handler) http.Handler {
	tr := telemetry.Tracer("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tr.Start(r.Context(), r.Method+" "+r.URL.Path)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ------------------------------ ROUNDS -------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Length     int    `json:"length"`
	Guesses    int    `json:"guesses"`    // optional; default 8
	Difficulty string `json:"difficulty"` // optional; default "hard"
}
type newGameRes struct {
	GameID      string `json:"gameId"`
	Pattern     string `json:"pattern"`
	Candidates  int    `json:"candidates"`
	GuessesLeft int    `json:"guessesLeft"`
	Difficulty  string `json:"difficulty"`
}

// handleNewGame starts a round in a fresh engine session and persists a DB
// "owner" row (either user_id or anonymous_id) for history/stats.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.Guesses == 0 {
		req.Guesses = defaultGuessBudget
	}
	if req.Difficulty == "" {
		req.Difficulty = string(game.DifficultyHard)
	}
	diff, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		http.Error(w, `{"error":"unknown_difficulty"}`, http.StatusBadRequest)
		return
	}

	m := game.NewManager(words.Words())
	if err := m.StartRound(req.Length, req.Guesses, diff); err != nil {
		http.Error(w, `{"error":"invalid_round"}`, http.StatusBadRequest)
		return
	}
	sess := &store.Session{ID: genID(), Round: m, Budget: req.Guesses, StartedAt: time.Now()}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	// Persist owner row (best effort).
	now := time.Now().UTC().Format(time.RFC3339)
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		_, err := s.db.Exec(`INSERT INTO games (id, user_id, length, difficulty, started_at, status, wrong_guesses)
		                     VALUES (?,?,?,?,?,?,0)`, sess.ID, me.ID, req.Length, string(diff), now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert user game row")
		}
	} else {
		anon := s.ensureAnonID(w, r)
		_, err := s.db.Exec(`INSERT INTO games (id, anonymous_id, length, difficulty, started_at, status, wrong_guesses)
		                     VALUES (?,?,?,?,?,?,0)`, sess.ID, anon, req.Length, string(diff), now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert anon game row")
		}
	}

	pattern, _ := m.Pattern()
	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID:      sess.ID,
		Pattern:     pattern,
		Candidates:  m.CandidateCount(),
		GuessesLeft: m.GuessesLeft(),
		Difficulty:  string(diff),
	})
}

// guessReq/Res payloads for POST /game/guess.
type guessReq struct {
	GameID string `json:"gameId"`
	Letter string `json:"letter"`
}
type guessRes struct {
	Pattern     string         `json:"pattern"`
	Families    map[string]int `json:"families"` // partition diagnostic: pattern → family size
	Guessed     []string       `json:"guessed"`
	Candidates  int            `json:"candidates"`
	GuessesLeft int            `json:"guessesLeft"`
	State       string         `json:"state"`          // "playing" | "won" | "lost"
	Word        string         `json:"word,omitempty"` // revealed once the round ends
}

// handleGuess applies a guessed letter to a session's round, persists
// progress, and (if finished) updates user stats in a best-effort
// transaction.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	letter, ok := singleLetter(req.Letter)
	if !ok {
		http.Error(w, `{"error":"invalid_letter"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.store.Get(r.Context(), req.GameID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}

	sess.Mu.Lock()
	m := sess.Round
	if st := m.State(); st != "playing" {
		res := s.roundSnapshot(m, nil)
		sess.Mu.Unlock()
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(res)
		return
	}
	// Duplicate letters are a contract violation for the engine; check here
	// on the caller side as the API requires.
	if m.AlreadyGuessed(letter) {
		sess.Mu.Unlock()
		http.Error(w, `{"error":"already_guessed"}`, http.StatusBadRequest)
		return
	}
	families, err := m.Guess(letter)
	if err != nil {
		sess.Mu.Unlock()
		log.Error().Err(err).Str("gameId", sess.ID).Msg("guess rejected")
		http.Error(w, `{"error":"guess_failed"}`, http.StatusBadRequest)
		return
	}
	res := s.roundSnapshot(m, families)
	state := res.State
	wrong := sess.Budget - m.GuessesLeft()
	sess.Mu.Unlock()

	if err := s.store.Save(r.Context(), sess); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	// Persist counters/history (best effort, non-fatal if it fails).
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	ownerClause := `anonymous_id=?`
	ownerArg := any(s.ensureAnonID(w, r))
	if me != nil {
		ownerClause = `user_id=?`
		ownerArg = any(me.ID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("begin persistence tx")
		_ = json.NewEncoder(w).Encode(res)
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE games SET wrong_guesses=? WHERE id=? AND `+ownerClause, wrong, sess.ID, ownerArg); err != nil {
		log.Warn().Err(err).Msg("update wrong guesses")
	}
	if state == "won" || state == "lost" {
		if _, err := tx.Exec(`UPDATE games SET status=?, finished_at=? WHERE id=? AND `+ownerClause,
			state, time.Now().UTC().Format(time.RFC3339), sess.ID, ownerArg); err != nil {
			log.Warn().Err(err).Msg("finish game")
		}
		if me != nil {
			if err := s.bumpStats(tx, me.ID, state == "won"); err != nil {
				log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
			}
		}
	}
	_ = tx.Commit()

	_ = json.NewEncoder(w).Encode(res)
}

// handleGameState reports the current round state without mutating it.
func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	sess.Mu.Lock()
	res := s.roundSnapshot(sess.Round, nil)
	sess.Mu.Unlock()
	_ = json.NewEncoder(w).Encode(res)
}

// roundSnapshot translates engine state into a guessRes. On a finished round
// the secret word is resolved and included. Caller holds the session lock.
func (s *Server) roundSnapshot(m *game.Manager, families map[string]int) guessRes {
	pattern, _ := m.Pattern()
	guessed := make([]string, 0, len(m.GuessedLetters()))
	for _, r := range m.GuessedLetters() {
		guessed = append(guessed, string(r))
	}
	res := guessRes{
		Pattern:     pattern,
		Families:    families,
		Guessed:     guessed,
		Candidates:  m.CandidateCount(),
		GuessesLeft: m.GuessesLeft(),
		State:       m.State(),
	}
	if res.State == "won" || res.State == "lost" {
		if word, err := m.SecretWord(); err == nil {
			res.Word = word
		}
	}
	return res
}

// singleLetter extracts the one guessed rune from a request string.
func singleLetter(s string) (rune, bool) {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) != 1 {
		return 0, false
	}
	return runes[0], true
}

// ------------------------------- helpers -----------------------------------

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
