package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"shortlink/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(db))
	return db
}

func mustCreate(t *testing.T, repo *URLRepository, userID, code, originalURL string) *domain.URL {
	t.Helper()
	created, err := repo.Create(context.Background(), &domain.URL{
		UserID:      userID,
		ShortCode:   code,
		OriginalURL: originalURL,
		IsActive:    true,
	})
	require.NoError(t, err)
	return created
}

func TestURLRepository_Create_AssignsIDAndTimestamps(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))

	created := mustCreate(t, repo, "user-1", "abc123", "https://example.com")

	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.True(t, created.IsActive)
}

func TestURLRepository_Create_DuplicateShortCode(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	mustCreate(t, repo, "user-1", "abc123", "https://example.com")

	_, err := repo.Create(context.Background(), &domain.URL{
		UserID:      "user-2",
		ShortCode:   "abc123",
		OriginalURL: "https://other.example.com",
		IsActive:    true,
	})

	assert.ErrorIs(t, err, domain.ErrShortCodeExists)
}

func TestURLRepository_FindByShortCode_RoundTrip(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	expires := time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)
	created, err := repo.Create(context.Background(), &domain.URL{
		UserID:      "user-1",
		ShortCode:   "abc123",
		OriginalURL: "https://example.com/page",
		IsActive:    true,
		ExpiresAt:   &expires,
	})
	require.NoError(t, err)

	found, err := repo.FindByShortCode(context.Background(), "abc123")

	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "user-1", found.UserID)
	assert.Equal(t, "https://example.com/page", found.OriginalURL)
	require.NotNil(t, found.ExpiresAt)
	assert.True(t, found.ExpiresAt.Equal(expires))
}

func TestURLRepository_FindByShortCode_NotFound(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))

	found, err := repo.FindByShortCode(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, domain.ErrURLNotFound)
	assert.Nil(t, found)
}

func TestURLRepository_ExistsByShortCode(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	mustCreate(t, repo, "user-1", "abc123", "https://example.com")

	exists, err := repo.ExistsByShortCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByShortCode(context.Background(), "other0")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestURLRepository_FindByUserID_FiltersOwner(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	mustCreate(t, repo, "user-1", "one111", "https://example.com/1")
	mustCreate(t, repo, "user-1", "two222", "https://example.com/2")
	mustCreate(t, repo, "user-2", "foreign", "https://example.com/3")

	urls, err := repo.FindByUserID(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Len(t, urls, 2)
	for _, u := range urls {
		assert.Equal(t, "user-1", u.UserID)
	}
}

func TestURLRepository_Update_PersistsChanges(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	created := mustCreate(t, repo, "user-1", "abc123", "https://example.com")

	created.OriginalURL = "https://example.com/moved"
	created.IsActive = false
	require.NoError(t, repo.Update(context.Background(), created))

	found, err := repo.FindByShortCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/moved", found.OriginalURL)
	assert.False(t, found.IsActive)
}

func TestURLRepository_Update_MissingURL(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))

	err := repo.Update(context.Background(), &domain.URL{ID: 999, OriginalURL: "https://example.com"})

	assert.ErrorIs(t, err, domain.ErrURLNotFound)
}

func TestURLRepository_Delete_RemovesRecord(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	created := mustCreate(t, repo, "user-1", "abc123", "https://example.com")

	require.NoError(t, repo.Delete(context.Background(), created.ID))

	_, err := repo.FindByShortCode(context.Background(), "abc123")
	assert.ErrorIs(t, err, domain.ErrURLNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), created.ID), domain.ErrURLNotFound)
}

func TestURLRepository_BatchDeactivate_SkipsForeignIDs(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	mine := mustCreate(t, repo, "user-1", "mine01", "https://example.com/1")
	theirs := mustCreate(t, repo, "user-2", "theirs", "https://example.com/2")

	res, err := repo.BatchDeactivate(context.Background(), []int64{mine.ID, theirs.ID}, "user-1")

	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalProcessed)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Results, 2)
	assert.True(t, res.Results[0].Success)
	assert.False(t, res.Results[1].Success)

	found, err := repo.FindByShortCode(context.Background(), "mine01")
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	untouched, err := repo.FindByShortCode(context.Background(), "theirs")
	require.NoError(t, err)
	assert.True(t, untouched.IsActive)
}

func TestURLRepository_BatchReactivate_RestoresActive(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	u := mustCreate(t, repo, "user-1", "abc123", "https://example.com")
	_, err := repo.BatchDeactivate(context.Background(), []int64{u.ID}, "user-1")
	require.NoError(t, err)

	res, err := repo.BatchReactivate(context.Background(), []int64{u.ID}, "user-1")

	require.NoError(t, err)
	assert.Equal(t, 1, res.Successful)
	found, err := repo.FindByShortCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, found.IsActive)
}

func TestURLRepository_BatchDelete_RemovesOwnedOnly(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	mine := mustCreate(t, repo, "user-1", "mine01", "https://example.com/1")
	theirs := mustCreate(t, repo, "user-2", "theirs", "https://example.com/2")

	res, err := repo.BatchDelete(context.Background(), []int64{mine.ID, theirs.ID}, "user-1")

	require.NoError(t, err)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)

	_, err = repo.FindByShortCode(context.Background(), "mine01")
	assert.ErrorIs(t, err, domain.ErrURLNotFound)
	_, err = repo.FindByShortCode(context.Background(), "theirs")
	assert.NoError(t, err)
}

func TestURLRepository_BatchUpdateStatus_AppliesValue(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	u := mustCreate(t, repo, "user-1", "abc123", "https://example.com")

	res, err := repo.BatchUpdateStatus(context.Background(), []int64{u.ID}, "user-1", false)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Successful)
	found, err := repo.FindByShortCode(context.Background(), "abc123")
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestURLRepository_BatchUpdateExpiration_AppliesValue(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))
	u := mustCreate(t, repo, "user-1", "abc123", "https://example.com")
	expires := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)

	res, err := repo.BatchUpdateExpiration(context.Background(), []int64{u.ID}, "user-1", &expires)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Successful)
	found, err := repo.FindByShortCode(context.Background(), "abc123")
	require.NoError(t, err)
	require.NotNil(t, found.ExpiresAt)
	assert.True(t, found.ExpiresAt.Equal(expires))
}

func TestURLRepository_BatchMutate_EmptyIDs(t *testing.T) {
	repo := NewURLRepository(setupTestDB(t))

	res, err := repo.BatchDeactivate(context.Background(), nil, "user-1")

	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalProcessed)
	assert.Empty(t, res.Results)
}
