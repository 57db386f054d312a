package sqlite

import (
	"context"
	"database/sql"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/usecase"
)

// ClickRepository implements usecase.ClickRepository on SQLite.
type ClickRepository struct {
	db *sql.DB
}

// NewClickRepository creates a new SQLite-backed click repository.
func NewClickRepository(db *sql.DB) *ClickRepository {
	return &ClickRepository{db: db}
}

// Ensure ClickRepository implements usecase.ClickRepository at compile time
var _ usecase.ClickRepository = (*ClickRepository)(nil)

func (r *ClickRepository) RecordClick(ctx context.Context, click domain.ClickEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clicks (url_id, clicked_at, ip_address, user_agent, referer, country_code)
		VALUES (?, ?, ?, ?, ?, ?)`,
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
		"SELECT COUNT(*) FROM clicks WHERE url_id = ?", urlID,
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
		WHERE url_id = ? AND clicked_at >= ? AND clicked_at < ?`,
		urlID, from, to,
	).Scan(&stats.TotalClicks)
	if err != nil {
		return nil, domain.NewRepositoryError("url click stats", err)
	}

	daily, err := r.dailyCounts(ctx, `
		SELECT strftime('%Y-%m-%d', clicked_at), COUNT(*)
		FROM clicks
		WHERE url_id = ? AND clicked_at >= ? AND clicked_at < ?
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
		"SELECT COUNT(*) FROM urls WHERE user_id = ?", userID,
	).Scan(&stats.URLCount)
	if err != nil {
		return nil, domain.NewRepositoryError("user click stats", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM clicks c JOIN urls u ON u.id = c.url_id
		WHERE u.user_id = ? AND c.clicked_at >= ? AND c.clicked_at < ?`,
		userID, from, to,
	).Scan(&stats.TotalClicks)
	if err != nil {
		return nil, domain.NewRepositoryError("user click stats", err)
	}

	daily, err := r.dailyCounts(ctx, `
		SELECT strftime('%Y-%m-%d', c.clicked_at), COUNT(*)
		FROM clicks c JOIN urls u ON u.id = c.url_id
		WHERE u.user_id = ? AND c.clicked_at >= ? AND c.clicked_at < ?
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
		WHERE url_id = ? AND clicked_at >= ? AND clicked_at < ?
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
		"DELETE FROM clicks WHERE clicked_at < ?", olderThan,
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
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		parsed, err := time.ParseInLocation("2006-01-02", day, time.UTC)
		if err != nil {
			return nil, err
		}
		daily = append(daily, domain.DayCount{Day: parsed, Clicks: count})
	}
	return daily, rows.Err()
}
