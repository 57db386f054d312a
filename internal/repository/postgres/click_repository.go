package postgres

import (
	"context"
	"database/sql"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/usecase"
)

// ClickRepository implements usecase.ClickRepository on PostgreSQL.
type ClickRepository struct {
	db *sql.DB
}

// NewClickRepository creates a new PostgreSQL-backed click repository.
func NewClickRepository(db *sql.DB) *ClickRepository {
	return &ClickRepository{db: db}
}

// Ensure ClickRepository implements usecase.ClickRepository at compile time
var _ usecase.ClickRepository = (*ClickRepository)(nil)

func (r *ClickRepository) RecordClick(ctx context.Context, click domain.ClickEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clicks (url_id, clicked_at, ip_address, user_agent, referer, country_code)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		click.URLID, click.Timestamp, click.IPAddress, click.UserAgent, click.Referer, click.CountryCode,
	)
	if err != nil {
		return domain.NewRepositoryError("record click", err)
	}
	return nil
}

func (r *ClickRepository) ClickCount(ctx context.Context, urlID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM clicks WHERE url_id = $1", urlID,
	).Scan(&count)
	if err != nil {
		return 0, domain.NewRepositoryError("count clicks", err)
	}
	return count, nil
}

func (r *ClickRepository) URLClickStats(ctx context.Context, urlID int64, from, to time.Time) (*domain.URLClickStats, error) {
	stats := &domain.URLClickStats{URLID: urlID}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM clicks
		WHERE url_id = $1 AND clicked_at >= $2 AND clicked_at < $3`,
		urlID, from, to,
	).Scan(&stats.TotalClicks)
	if err != nil {
		return nil, domain.NewRepositoryError("url click stats", err)
	}

	daily, err := r.dailyCounts(ctx, `
		SELECT date_trunc('day', clicked_at AT TIME ZONE 'UTC'), COUNT(*)
		FROM clicks
		WHERE url_id = $1 AND clicked_at >= $2 AND clicked_at < $3
		GROUP BY 1 ORDER BY 1`,
		urlID, from, to,
	)
	if err != nil {
		return nil, domain.NewRepositoryError("url click stats", err)
	}
	stats.Daily = daily
	return stats, nil
}

func (r *ClickRepository) UserClickStats(ctx context.Context, userID string, from, to time.Time) (*domain.UserClickStats, error) {
	stats := &domain.UserClickStats{UserID: userID}

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM urls WHERE user_id = $1", userID,
	).Scan(&stats.URLCount)
	if err != nil {
		return nil, domain.NewRepositoryError("user click stats", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM clicks c JOIN urls u ON u.id = c.url_id
		WHERE u.user_id = $1 AND c.clicked_at >= $2 AND c.clicked_at < $3`,
		userID, from, to,
	).Scan(&stats.TotalClicks)
	if err != nil {
		return nil, domain.NewRepositoryError("user click stats", err)
	}

	daily, err := r.dailyCounts(ctx, `
		SELECT date_trunc('day', c.clicked_at AT TIME ZONE 'UTC'), COUNT(*)
		FROM clicks c JOIN urls u ON u.id = c.url_id
		WHERE u.user_id = $1 AND c.clicked_at >= $2 AND c.clicked_at < $3
		GROUP BY 1 ORDER BY 1`,
		userID, from, to,
	)
	if err != nil {
		return nil, domain.NewRepositoryError("user click stats", err)
	}
	stats.Daily = daily
	return stats, nil
}

func (r *ClickRepository) ClicksInRange(ctx context.Context, urlID int64, from, to time.Time) ([]domain.ClickEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT url_id, clicked_at, ip_address, user_agent, referer, country_code
		FROM clicks
		WHERE url_id = $1 AND clicked_at >= $2 AND clicked_at < $3
		ORDER BY clicked_at`,
		urlID, from, to,
	)
	if err != nil {
		return nil, domain.NewRepositoryError("clicks in range", err)
	}
	defer rows.Close()

	var clicks []domain.ClickEvent
	for rows.Next() {
		var c domain.ClickEvent
		if err := rows.Scan(&c.URLID, &c.Timestamp, &c.IPAddress, &c.UserAgent, &c.Referer, &c.CountryCode); err != nil {
			return nil, domain.NewRepositoryError("clicks in range", err)
		}
		clicks = append(clicks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("clicks in range", err)
	}
	return clicks, nil
}

func (r *ClickRepository) DeleteOldClicks(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM clicks WHERE clicked_at < $1", olderThan,
	)
	if err != nil {
		return 0, domain.NewRepositoryError("delete old clicks", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, domain.NewRepositoryError("delete old clicks", err)
	}
	return deleted, nil
}

func (r *ClickRepository) dailyCounts(ctx context.Context, query string, args ...any) ([]domain.DayCount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var daily []domain.DayCount
	for rows.Next() {
		var day time.Time
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		daily = append(daily, domain.DayCount{Day: day.UTC(), Clicks: count})
	}
	return daily, rows.Err()
}
