package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/usecase"

	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// URLRepository implements usecase.URLRepository on PostgreSQL.
type URLRepository struct {
	db *sql.DB
}

// NewURLRepository creates a new PostgreSQL-backed URL repository.
func NewURLRepository(db *sql.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Ensure URLRepository implements usecase.URLRepository at compile time
var _ usecase.URLRepository = (*URLRepository)(nil)

const urlColumns = "id, user_id, short_code, original_url, is_active, expires_at, created_at, updated_at"

func (r *URLRepository) Create(ctx context.Context, u *domain.URL) (*domain.URL, error) {
	created := *u
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO urls (user_id, short_code, original_url, is_active, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		u.UserID, u.ShortCode, u.OriginalURL, u.IsActive, u.ExpiresAt,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, domain.ErrShortCodeExists
		}
		return nil, domain.NewRepositoryError("create url", err)
	}
	return &created, nil
}

func (r *URLRepository) FindByShortCode(ctx context.Context, code string) (*domain.URL, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+urlColumns+" FROM urls WHERE short_code = $1", code,
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
		"SELECT "+urlColumns+" FROM urls WHERE user_id = $1 ORDER BY created_at DESC", userID,
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
		"SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = $1)", code,
	).Scan(&exists)
	if err != nil {
		return false, domain.NewRepositoryError("check short code exists", err)
	}
	return exists, nil
}

func (r *URLRepository) Update(ctx context.Context, u *domain.URL) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE urls
		SET original_url = $1, is_active = $2, expires_at = $3, updated_at = NOW()
		WHERE id = $4`,
		u.OriginalURL, u.IsActive, u.ExpiresAt, u.ID,
	)
	if err != nil {
		return domain.NewRepositoryError("update url", err)
	}
	return requireRowAffected(res, "update url")
}

func (r *URLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM urls WHERE id = $1", id)
	if err != nil {
		return domain.NewRepositoryError("delete url", err)
	}
	return requireRowAffected(res, "delete url")
}

func (r *URLRepository) BatchDeactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch deactivate", ids, userID, `
		UPDATE urls SET is_active = FALSE, updated_at = NOW()
		WHERE id = ANY($1) AND user_id = $2
		RETURNING id`)
}

func (r *URLRepository) BatchReactivate(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch reactivate", ids, userID, `
		UPDATE urls SET is_active = TRUE, updated_at = NOW()
		WHERE id = ANY($1) AND user_id = $2
		RETURNING id`)
}

func (r *URLRepository) BatchDelete(ctx context.Context, ids []int64, userID string) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch delete", ids, userID, `
		DELETE FROM urls
		WHERE id = ANY($1) AND user_id = $2
		RETURNING id`)
}

func (r *URLRepository) BatchUpdateStatus(ctx context.Context, ids []int64, userID string, active bool) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch update status", ids, userID, `
		UPDATE urls SET is_active = $3, updated_at = NOW()
		WHERE id = ANY($1) AND user_id = $2
		RETURNING id`, active)
}

func (r *URLRepository) BatchUpdateExpiration(ctx context.Context, ids []int64, userID string, expiresAt *time.Time) (*domain.BatchResult, error) {
	return r.batchMutate(ctx, "batch update expiration", ids, userID, `
		UPDATE urls SET expires_at = $3, updated_at = NOW()
		WHERE id = ANY($1) AND user_id = $2
		RETURNING id`, expiresAt)
}

// batchMutate runs one ownership-scoped statement over ids. The statement
// must take the id array as $1, the user as $2, and RETURNING id; ids the
// user does not own come back as failed items rather than an error.
func (r *URLRepository) batchMutate(ctx context.Context, op string, ids []int64, userID string, stmt string, extra ...any) (*domain.BatchResult, error) {
	result := &domain.BatchResult{TotalProcessed: len(ids)}
	if len(ids) == 0 {
		return result, nil
	}

	args := append([]any{pq.Array(ids), userID}, extra...)
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, domain.NewRepositoryError(op, err)
	}
	defer rows.Close()

	applied := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewRepositoryError(op, err)
		}
		applied[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError(op, err)
	}

	for _, id := range ids {
		if applied[id] {
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
