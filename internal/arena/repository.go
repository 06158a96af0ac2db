package arena

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/danyla1203/chess-live/internal/match"
	"github.com/danyla1203/chess-live/internal/rules"
)

// Repository persists finished matches to Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a finished match keyed by match id, so a retried
// save after a transient failure stays a single row.
func (r *Repository) SaveResult(ctx context.Context, res *match.Result) error {
	if r == nil || r.db == nil || res == nil {
		return nil
	}

	var winnerID, winnerSide string
	if res.Winner != nil {
		winnerID = res.Winner.UserID
		winnerSide = string(res.Winner.Side)
	}
	var whiteID, whiteName, blackID, blackName string
	for _, p := range res.Players {
		if p.Side == rules.White {
			whiteID, whiteName = p.UserID, p.Name
		} else {
			blackID, blackName = p.UserID, p.Name
		}
	}
	movesRaw, err := json.Marshal(res.Moves)
	if err != nil {
		return err
	}

	q := `INSERT INTO played_matches (
	    match_id, white_id, white_name, black_id, black_name,
	    max_time_ms, increment_ms,
	    reason, is_draw, winner_id, winner_side, moves, ended_at
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
	  ) ON CONFLICT (match_id) DO UPDATE SET
	    reason=EXCLUDED.reason,
	    is_draw=EXCLUDED.is_draw,
	    winner_id=EXCLUDED.winner_id,
	    winner_side=EXCLUDED.winner_side,
	    moves=EXCLUDED.moves,
	    ended_at=EXCLUDED.ended_at`

	_, err = r.db.ExecContext(ctx, q,
		res.MatchID,
		whiteID, whiteName,
		blackID, blackName,
		res.Config.TimeMs, res.Config.IncrementMs,
		res.Reason, res.Draw, winnerID, winnerSide,
		string(movesRaw), res.EndedAt,
	)
	return err
}
