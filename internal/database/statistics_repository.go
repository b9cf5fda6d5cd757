package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
)

// leaderboardPageSize caps the number of rows returned per streamer.
const leaderboardPageSize = 100

// StatisticsRepo implements domain.StatisticsRepository backed by
// PostgreSQL. The single-statement upsert makes the read-modify-write
// atomic per (viewer, streamer) pair; rows for different pairs never
// serialize against each other.
type StatisticsRepo struct {
	pool *pgxpool.Pool
}

// NewStatisticsRepo creates a StatisticsRepo from the shared pool.
func NewStatisticsRepo(pool *pgxpool.Pool) *StatisticsRepo {
	return &StatisticsRepo{pool: pool}
}

func (r *StatisticsRepo) Upsert(ctx context.Context, viewerID, streamerID string, deltaComments, deltaExperience, deltaCoins int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO statistics (viewer_id, streamer_id, comments, experience, coins)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (viewer_id, streamer_id) DO UPDATE SET
			comments   = statistics.comments   + EXCLUDED.comments,
			experience = statistics.experience + EXCLUDED.experience,
			coins      = statistics.coins      + EXCLUDED.coins
	`, viewerID, streamerID, deltaComments, deltaExperience, deltaCoins)
	if err != nil {
		return fmt.Errorf("failed to upsert statistics: %w", err)
	}
	return nil
}

func (r *StatisticsRepo) ListByStreamer(ctx context.Context, streamerID string) ([]domain.Statistic, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT viewer_id, streamer_id, comments, experience, coins
		FROM statistics
		WHERE streamer_id = $1
		ORDER BY experience DESC
		LIMIT $2
	`, streamerID, leaderboardPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	var stats []domain.Statistic
	for rows.Next() {
		var s domain.Statistic
		if err := rows.Scan(&s.ViewerID, &s.StreamerID, &s.Comments, &s.Experience, &s.Coins); err != nil {
			return nil, fmt.Errorf("failed to scan statistics row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statistics rows: %w", err)
	}

	return stats, nil
}
