package arena

import (
	"context"
	"sync"

	"github.com/danyla1203/chess-live/internal/match"
)

// ResultSink is the durable destination for finished matches between two
// authenticated players.
type ResultSink interface {
	SaveResult(ctx context.Context, r *match.Result) error
	Close() error
}

// MemorySink keeps results in memory; used in tests and when no database
// is configured.
type MemorySink struct {
	mu      sync.Mutex
	results []*match.Result
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) SaveResult(_ context.Context, r *match.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *MemorySink) Close() error { return nil }

// Results returns a copy of everything saved so far.
func (s *MemorySink) Results() []*match.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*match.Result(nil), s.results...)
}
