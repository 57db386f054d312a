package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/usecase"

	"github.com/mattn/go-sqlite3"
)

// URLRepository implements usecase.URLRepository on SQLite.
type URLRepository struct {
	db *sql.DB
}

// NewURLRepository creates a new SQLite-backed URL repository.
func NewURLRepository(db *sql.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Ensure URLRepository implements usecase.URLRepository at compile time
var _ usecase.URLRepository = (*URLRepository)(nil)

const urlColumns = "id, user_id, short_code, original_url, is_active, expires_at, created_at, updated_at"

func (r *URLRepository) Create(ctx context.Context, u *domain.URL) (*domain.URL, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO urls (user_id, short_code, original_url, is_active, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.UserID, u.ShortCode, u.OriginalURL, u.IsActive, u.ExpiresAt, now, now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, domain.ErrShortCodeExists
		}
		return nil, domain.NewRepositoryError("create url", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, domain.NewRepositoryError("create url", err)
	}

	created := *u
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

func (r *URLRepository) FindByShortCode(ctx context.Context, code string) (*domain.URL, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+urlColumns+" FROM urls WHERE short_code = ?", code,
	)
	u, err := scanURL(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrURLNotFound
		}
		return nil, domain.NewRepositoryError("find url by short code", err)
	}
	return u, nil
}

func (r *URLRepository) FindByUserID(ctx context.Context, userID string) ([]domain.URL, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+urlColumns+" FROM urls WHERE user_id = ? ORDER BY created_at DESC", userID,
	)
	if err != nil {
		return nil, domain.NewRepositoryError("find urls by user", err)
	}
	defer rows.Close()

	var urls []domain.URL
	for rows.Next() {
		u, err := scanURL(rows)
		if err != nil {
			return nil, domain.NewRepositoryError("find urls by user", err)
		}
		urls = append(urls, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("find urls by user", err)
	}
	return urls, nil
}

func (r *URLRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = ?)", code,
	).Scan(&exists)
	if err != nil {
		return false, domain.NewRepositoryError("check short code exists", err)
	}
	return exists, nil
}

func (r *URLRepository) Update(ctx context.Context, u *domain.URL) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE urls
		SET original_url = ?, is_active = ?, expires_at = ?, updated_at = ?
		WHERE id = ?`,
		u.OriginalURL, u.IsActive, u.ExpiresAt, time.Now().UTC(), u.ID,
	)
	if err != nil {
		return domain.NewRepositoryError("update url", err)
	}
	return requireRowAffected(res, "update url")
}

func (r *URLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM urls WHERE id = ?", id)
	if err != nil {
		return domain.NewRepositoryError("delete url", err)
	}
	return requireRowAffected(res, "delete url")
}

func (r *URLRepository) BatchDeactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch deactivate", ids, userID,
		"UPDATE urls SET is_active = 0, updated_at = ? WHERE id IN (%s)")
}

func (r *URLRepository) BatchReactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch reactivate", ids, userID,
		"UPDATE urls SET is_active = 1, updated_at = ? WHERE id IN (%s)")
}

func (r *URLRepository) BatchDelete(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch delete", ids, userID,
		"DELETE FROM urls WHERE id IN (%s)")
}

func (r *URLRepository) BatchUpdateStatus(ctx context.Context, ids []int64, userID string, active bool) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch update status", ids, userID,
		"UPDATE urls SET is_active = ?, updated_at = ? WHERE id IN (%s)", active)
}

func (r *URLRepository) BatchUpdateExpiration(ctx context.Context, ids []int64, userID string, expiresAt *time.Time) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch update expiration", ids, userID,
		"UPDATE urls SET expires_at = ?, updated_at = ? WHERE id IN (%s)", expiresAt)
}

// batchMutate applies one statement to every id the user owns, inside a
// transaction. Ids the user does not own are reported as failed items, not
// as an error; the statement's %s is filled with the owned-id placeholder
// list, and any extra args precede it. Statements containing updated_at
// must list its placeholder after the extra args.
func (r *URLRepository) batchMutate(ctx context.Context, op string, ids []int64, userID string, stmt string, extra ...any) (*domain.BatchResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.NewRepositoryError(op, err)
	}
	defer tx.Rollback()

	owned, err := ownedIDs(ctx, tx, ids, userID)
	if err != nil {
		return nil, domain.NewRepositoryError(op, err)
	}

	if len(owned) > 0 {
		ownedList := make([]int64, 0, len(owned))
		for _, id := range ids {
			if owned[id] {
				ownedList = append(ownedList, id)
			}
		}

		args := make([]any, 0, len(extra)+1+len(ownedList))
		args = append(args, extra...)
		if strings.Contains(stmt, "updated_at = ?") {
			args = append(args, time.Now().UTC())
		}
		for _, id := range ownedList {
			args = append(args, id)
		}

		query := fmt.Sprintf(stmt, placeholders(len(ownedList)))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, domain.NewRepositoryError(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.NewRepositoryError(op, err)
	}

	result := &domain.BatchResult{TotalProcessed: len(ids)}
	for _, id := range ids {
		if owned[id] {
			result.Successful++
			result.Results = append(result.Results, domain.BatchItemResult{EntityID: id, Success: true})
		} else {
			result.Failed++
			result.Results = append(result.Results, domain.BatchItemResult{
				EntityID: id, Success: false, Error: "url not found",
			})
		}
	}
	return result, nil
}

// ownedIDs returns which of ids belong to userID.
func ownedIDs(ctx context.Context, tx *sql.Tx, ids []int64, userID string) (map[int64]bool, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, userID)

	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf("SELECT id FROM urls WHERE id IN (%s) AND user_id = ?", placeholders(len(ids))),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owned := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owned[id] = true
	}
	return owned, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func requireRowAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.NewRepositoryError(op, err)
	}
	if affected == 0 {
		return domain.ErrURLNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanURL(row rowScanner) (*domain.URL, error) {
	var u domain.URL
	var expiresAt sql.NullTime
	err := row.Scan(
		&u.ID, &u.UserID, &u.ShortCode, &u.OriginalURL,
		&u.IsActive, &expiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		u.ExpiresAt = &t
	}
	return &u, nil
}
