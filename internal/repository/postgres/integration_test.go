//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/repository/cache"
	"shortlink/internal/repository/postgres"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// IntegrationTestSuite exercises the PostgreSQL repositories and the Redis
// cache against real backends.
type IntegrationTestSuite struct {
	suite.Suite
	ctx            context.Context
	pgContainer    *tcpostgres.PostgresContainer
	redisContainer *tcredis.RedisContainer
	db             *sql.DB
	redisClient    *redis.Client
	urls           *postgres.URLRepository
	clicks         *postgres.ClickRepository
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	pgContainer, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(s.T(), err)
	s.pgContainer = pgContainer

	redisContainer, err := tcredis.Run(s.ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(s.T(), err)
	s.redisContainer = redisContainer

	connStr, err := pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.db, err = postgres.OpenDB(connStr)
	require.NoError(s.T(), err)
	require.NoError(s.T(), postgres.RunMigrations(s.db))

	redisEndpoint, err := redisContainer.Endpoint(s.ctx, "")
	require.NoError(s.T(), err)
	s.redisClient = redis.NewClient(&redis.Options{Addr: redisEndpoint})

	s.urls = postgres.NewURLRepository(s.db)
	s.clicks = postgres.NewClickRepository(s.db)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.redisContainer != nil {
		_ = s.redisContainer.Terminate(s.ctx)
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
}

func (s *IntegrationTestSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, "TRUNCATE clicks, urls RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.redisClient.FlushAll(s.ctx).Err())
}

func (s *IntegrationTestSuite) createURL(userID, code string) *domain.URL {
	created, err := s.urls.Create(s.ctx, &domain.URL{
		UserID:      userID,
		ShortCode:   code,
		OriginalURL: "https://example.com/" + code,
		IsActive:    true,
	})
	require.NoError(s.T(), err)
	return created
}

func (s *IntegrationTestSuite) TestCreateAndFind() {
	created := s.createURL("user-1", "abc123")

	found, err := s.urls.FindByShortCode(s.ctx, "abc123")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), created.ID, found.ID)
	assert.Equal(s.T(), "user-1", found.UserID)
}

func (s *IntegrationTestSuite) TestDuplicateShortCode() {
	s.createURL("user-1", "abc123")

	_, err := s.urls.Create(s.ctx, &domain.URL{
		UserID:      "user-2",
		ShortCode:   "abc123",
		OriginalURL: "https://example.com/other",
		IsActive:    true,
	})
	assert.ErrorIs(s.T(), err, domain.ErrShortCodeExists)
}

func (s *IntegrationTestSuite) TestBatchDeactivateScopesToOwner() {
	mine := s.createURL("user-1", "mine01")
	theirs := s.createURL("user-2", "theirs")

	res, err := s.urls.BatchDeactivate(s.ctx, []int64{mine.ID, theirs.ID}, "user-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, res.Successful)
	assert.Equal(s.T(), 1, res.Failed)

	found, err := s.urls.FindByShortCode(s.ctx, "mine01")
	require.NoError(s.T(), err)
	assert.False(s.T(), found.IsActive)

	untouched, err := s.urls.FindByShortCode(s.ctx, "theirs")
	require.NoError(s.T(), err)
	assert.True(s.T(), untouched.IsActive)
}

func (s *IntegrationTestSuite) TestBatchUpdateExpiration() {
	u := s.createURL("user-1", "abc123")
	expires := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)

	res, err := s.urls.BatchUpdateExpiration(s.ctx, []int64{u.ID}, "user-1", &expires)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, res.Successful)

	found, err := s.urls.FindByShortCode(s.ctx, "abc123")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), found.ExpiresAt)
	assert.True(s.T(), found.ExpiresAt.Equal(expires))
}

func (s *IntegrationTestSuite) TestClickStatsGroupByDay() {
	u := s.createURL("user-1", "abc123")

	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for _, ts := range []time.Time{day1, day1.Add(time.Hour), day2} {
		require.NoError(s.T(), s.clicks.RecordClick(s.ctx, domain.ClickEvent{
			URLID:     u.ID,
			Timestamp: ts,
			IPAddress: "192.0.2.1",
		}))
	}

	stats, err := s.clicks.URLClickStats(s.ctx, u.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(3), stats.TotalClicks)
	require.Len(s.T(), stats.Daily, 2)
	assert.Equal(s.T(), int64(2), stats.Daily[0].Clicks)
}

func (s *IntegrationTestSuite) TestUserClickStatsAcrossURLs() {
	first := s.createURL("user-1", "one111")
	second := s.createURL("user-1", "two222")

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(s.T(), s.clicks.RecordClick(s.ctx, domain.ClickEvent{URLID: first.ID, Timestamp: ts}))
	require.NoError(s.T(), s.clicks.RecordClick(s.ctx, domain.ClickEvent{URLID: second.ID, Timestamp: ts}))

	stats, err := s.clicks.UserClickStats(s.ctx, "user-1", ts.Add(-time.Hour), ts.Add(time.Hour))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), stats.TotalClicks)
	assert.Equal(s.T(), int64(2), stats.URLCount)
}

func (s *IntegrationTestSuite) TestCachedRepositoryServesFromRedis() {
	created := s.createURL("user-1", "cache1")

	urlCache := cache.NewRedisURLCache(s.redisClient, zap.NewNop())
	cached := cache.NewCachedURLRepository(s.urls, urlCache)

	// First lookup populates the cache.
	first, err := cached.FindByShortCode(s.ctx, created.ShortCode)
	require.NoError(s.T(), err)

	// Mutate storage behind the cache's back; the cached entry still serves.
	_, err = s.db.ExecContext(s.ctx, "UPDATE urls SET original_url = 'https://example.com/changed' WHERE id = $1", created.ID)
	require.NoError(s.T(), err)

	second, err := cached.FindByShortCode(s.ctx, created.ShortCode)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), first.OriginalURL, second.OriginalURL)

	// After invalidation the lookup falls through to storage.
	require.NoError(s.T(), urlCache.Invalidate(s.ctx, created.ShortCode))
	third, err := cached.FindByShortCode(s.ctx, created.ShortCode)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "https://example.com/changed", third.OriginalURL)
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(IntegrationTestSuite))
}
