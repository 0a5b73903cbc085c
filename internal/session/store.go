// Package session keeps per-conversation history for follow-up questions.
//
// Each session holds the most recent exchanges up to a fixed cap. Older
// exchanges are dropped oldest-first so the prompt assembled from history
// stays bounded regardless of conversation length.
package session

import (
	"log/slog"
	"strings"
	"sync"
)

// Exchange is one completed question and answer pair.
type Exchange struct {
	Question string
	Answer   string
}

// Store is an in-memory session store safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	sessions   map[string][]Exchange
	maxHistory int
	logger     *slog.Logger
}

// NewStore creates a session store keeping at most maxHistory exchanges
// per session.
func NewStore(maxHistory int, logger *slog.Logger) *Store {
	return &Store{
		sessions:   make(map[string][]Exchange),
		maxHistory: maxHistory,
		logger:     logger,
	}
}

// History renders a session's exchanges for prompt assembly, oldest first.
// Unknown or empty sessions render as the empty string.
func (s *Store) History(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	exchanges, ok := s.sessions[sessionID]
	if !ok || len(exchanges) == 0 {
		return ""
	}

	lines := make([]string, 0, len(exchanges))
	for _, e := range exchanges {
		lines = append(lines, "User: "+e.Question+"\nAssistant: "+e.Answer)
	}
	return strings.Join(lines, "\n")
}

// Append records a completed exchange, trimming the session to the cap.
func (s *Store) Append(sessionID, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exchanges := append(s.sessions[sessionID], Exchange{Question: question, Answer: answer})
	if s.maxHistory >= 0 && len(exchanges) > s.maxHistory {
		exchanges = exchanges[len(exchanges)-s.maxHistory:]
	}
	s.sessions[sessionID] = exchanges

	s.logger.Debug("exchange recorded",
		slog.String("session_id", sessionID),
		slog.Int("history_len", len(exchanges)))
}
