package arena

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danyla1203/chess-live/internal/match"
)

const ttlResult = 24 * time.Hour

// ResultStore caches finished-match results in Redis so clients can fetch
// a recent outcome without a database round trip. Entries expire after a
// day; the SQL repository is the durable record.
type ResultStore struct{ rdb *redis.Client }

func NewResultStore(redisURL string) (*ResultStore, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &ResultStore{rdb: rdb}, nil
}

func (s *ResultStore) Close() error { return s.rdb.Close() }

func (s *ResultStore) keyResult(matchID string) string { return "match:result:" + matchID }
func (s *ResultStore) keyUserIdx(userID string) string { return "match:index:user:" + userID }

// Save writes the result blob and indexes it per participant.
func (s *ResultStore) Save(ctx context.Context, r *match.Result) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.keyResult(r.MatchID), raw, ttlResult).Err(); err != nil {
		return err
	}
	for _, p := range r.Players {
		if strings.TrimSpace(p.UserID) == "" {
			continue
		}
		if err := s.rdb.SAdd(ctx, s.keyUserIdx(p.UserID), r.MatchID).Err(); err != nil {
			return err
		}
		_ = s.rdb.Expire(ctx, s.keyUserIdx(p.UserID), ttlResult).Err()
	}
	return nil
}

// Load returns a cached result, or nil when the entry is absent or expired.
func (s *ResultStore) Load(ctx context.Context, matchID string) (*match.Result, error) {
	raw, err := s.rdb.Get(ctx, s.keyResult(matchID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r match.Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ResultsByUser lists the user's recent results, skipping expired entries.
func (s *ResultStore) ResultsByUser(ctx context.Context, userID string) ([]*match.Result, error) {
	ids, err := s.rdb.SMembers(ctx, s.keyUserIdx(userID)).Result()
	if err != nil {
		return nil, err
	}
	var out []*match.Result
	for _, id := range ids {
		r, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
