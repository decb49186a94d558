// Package history keeps a bounded, in-memory dialogue log per user. Nothing
// here survives a process restart; durable conversation storage is explicitly
// out of scope for this backend.
package history

import (
	"strings"
	"sync"
	"time"

	"loyalty_qa/pkg"
)

// Default budget values. The word-count budget is a coarse approximation of a
// model's real token count; callers must not treat it as model-exact.
const (
	DefaultMaxTokens   = 1024
	DefaultTokenBuffer = 500
	DefaultMaxUsers    = 10000
)

// Config bounds the store.
type Config struct {
	MaxTokens   int
	TokenBuffer int
	// MaxUsers caps how many users keep a log at once. The least recently
	// touched user is dropped entirely when the cap is exceeded.
	MaxUsers int
}

// Store maps user identifiers to their retained dialogue turns. Safe for
// concurrent use; appends and evictions for a single user are serialized by a
// per-user lock, while different users proceed in parallel.
type Store struct {
	mu    sync.Mutex
	cfg   Config
	users map[string]*userLog
}

type userLog struct {
	mu       sync.Mutex
	turns    []pkg.DialogueTurn
	lastSeen time.Time
}

// NewStore creates an empty store. Zero config fields fall back to defaults.
func NewStore(cfg Config) *Store {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.TokenBuffer == 0 {
		cfg.TokenBuffer = DefaultTokenBuffer
	}
	if cfg.MaxUsers == 0 {
		cfg.MaxUsers = DefaultMaxUsers
	}
	return &Store{
		cfg:   cfg,
		users: make(map[string]*userLog),
	}
}

// Record appends a user turn then an assistant turn, then evicts the oldest
// turns one at a time until the retained word count fits the budget. Eviction
// is per turn, not per exchange, so a truncation can leave an assistant turn
// without its paired user turn. A single oversized turn is kept rather than
// draining the log to empty.
func (s *Store) Record(userID, userText, assistantText string) {
	log := s.logFor(userID)

	log.mu.Lock()
	defer log.mu.Unlock()

	log.turns = append(log.turns,
		pkg.DialogueTurn{Role: pkg.RoleUser, Text: userText},
		pkg.DialogueTurn{Role: pkg.RoleAssistant, Text: assistantText},
	)

	budget := s.cfg.MaxTokens - s.cfg.TokenBuffer
	for len(log.turns) > 1 && tokenCount(log.turns) > budget {
		log.turns = log.turns[1:]
	}
}

// Render serializes the retained turns in chronological order, one
// role-labelled line per turn. An unknown user yields an empty string.
func (s *Store) Render(userID string) string {
	log := s.peek(userID)
	if log == nil {
		return ""
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	var b strings.Builder
	for _, turn := range log.turns {
		switch turn.Role {
		case pkg.RoleUser:
			b.WriteString("User: " + turn.Text + "\n")
		case pkg.RoleAssistant:
			b.WriteString("Assistant: " + turn.Text + "\n")
		}
	}
	return b.String()
}

// TokenCount returns the retained word count for a user.
func (s *Store) TokenCount(userID string) int {
	log := s.peek(userID)
	if log == nil {
		return 0
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	return tokenCount(log.turns)
}

// Turns returns a copy of the retained turns for a user.
func (s *Store) Turns(userID string) []pkg.DialogueTurn {
	log := s.peek(userID)
	if log == nil {
		return nil
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	out := make([]pkg.DialogueTurn, len(log.turns))
	copy(out, log.turns)
	return out
}

// logFor returns the user's log, creating it lazily. Creating a log beyond the
// user cap drops the least recently touched user first.
func (s *Store) logFor(userID string) *userLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.users[userID]
	if !ok {
		if len(s.users) >= s.cfg.MaxUsers {
			s.evictStalestLocked()
		}
		log = &userLog{}
		s.users[userID] = log
	}
	log.lastSeen = time.Now()
	return log
}

// peek returns the user's log without creating one.
func (s *Store) peek(userID string) *userLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.users[userID]
	if !ok {
		return nil
	}
	log.lastSeen = time.Now()
	return log
}

func (s *Store) evictStalestLocked() {
	var (
		stalest string
		oldest  time.Time
		found   bool
	)
	for id, log := range s.users {
		if !found || log.lastSeen.Before(oldest) {
			stalest = id
			oldest = log.lastSeen
			found = true
		}
	}
	if found {
		delete(s.users, stalest)
	}
}

// tokenCount is the whitespace word count summed over all turns.
func tokenCount(turns []pkg.DialogueTurn) int {
	total := 0
	for _, turn := range turns {
		total += len(strings.Fields(turn.Text))
	}
	return total
}
