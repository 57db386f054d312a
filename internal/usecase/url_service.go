package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"shortlink/internal/domain"

	"go.uber.org/zap"
)

const maxURLLength = 2048

// URLService implements the synchronous URL operations: creation with
// custom or generated short codes, lookups, and the redirect path.
type URLService struct {
	repo      URLRepository
	generator *ShortCodeGenerator
	recorder  *ClickRecorder
	logger    *zap.Logger
}

// NewURLService creates a URL service.
func NewURLService(repo URLRepository, generator *ShortCodeGenerator, recorder *ClickRecorder, logger *zap.Logger) *URLService {
	return &URLService{
		repo:      repo,
		generator: generator,
		recorder:  recorder,
		logger:    logger,
	}
}

// CreateURL validates and persists a new short URL for userID. When
// customCode is empty a code is generated from the URL; a custom code that
// is already taken fails with domain.ErrShortCodeExists.
func (s *URLService) CreateURL(ctx context.Context, userID, originalURL, customCode string, expiresAt *time.Time) (*domain.URL, error) {
	if err := validateOriginalURL(originalURL); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	var code domain.ShortCode
	if customCode != "" {
		c, err := domain.NewShortCode(customCode)
		if err != nil {
			return nil, err
		}
		exists, err := s.repo.ExistsByShortCode(ctx, c.String())
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrShortCodeExists
		}
		code = c
	} else {
		c, err := s.generator.Generate(ctx, originalURL)
		if err != nil {
			return nil, err
		}
		code = c
	}

	created, err := s.repo.Create(ctx, &domain.URL{
		UserID:      userID,
		ShortCode:   code.String(),
		OriginalURL: originalURL,
		IsActive:    true,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("short url created",
		zap.Int64("id", created.ID),
		zap.String("short_code", created.ShortCode),
		zap.String("user_id", userID),
	)
	return created, nil
}

// GetByShortCode retrieves a URL for the redirect path. Inactive URLs look
// like missing ones; expired URLs return domain.ErrURLExpired.
func (s *URLService) GetByShortCode(ctx context.Context, code string) (*domain.URL, error) {
	u, err := s.repo.FindByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := u.CanResolve(); err != nil {
		return nil, err
	}
	return u, nil
}

// RecordClick hands a click to the pipeline; it never waits on storage.
func (s *URLService) RecordClick(urlID int64, info domain.ClickInfo) error {
	return s.recorder.Record(domain.NewClickEvent(urlID, info))
}

// URLStats resolves a short code and answers its click aggregation through
// the pipeline consumer, so it observes every click recorded before the call.
func (s *URLService) URLStats(ctx context.Context, code string, from, to time.Time) (*domain.URLClickStats, error) {
	u, err := s.repo.FindByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.recorder.URLStats(ctx, u.ID, from, to)
}

// UserStats answers the click aggregation across all URLs owned by userID.
func (s *URLService) UserStats(ctx context.Context, userID string, from, to time.Time) (*domain.UserClickStats, error) {
	return s.recorder.UserStats(ctx, userID, from, to)
}

// UserURLs lists the URLs owned by userID.
func (s *URLService) UserURLs(ctx context.Context, userID string) ([]domain.URL, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// UpdateURL persists changes to an existing URL.
func (s *URLService) UpdateURL(ctx context.Context, u *domain.URL) error {
	if err := validateOriginalURL(u.OriginalURL); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	return s.repo.Update(ctx, u)
}

// DeleteURL removes a URL by short code if it is owned by userID.
func (s *URLService) DeleteURL(ctx context.Context, userID, code string) error {
	u, err := s.repo.FindByShortCode(ctx, code)
	if err != nil {
		return err
	}
	if u.UserID != userID {
		return domain.ErrURLNotFound
	}
	return s.repo.Delete(ctx, u.ID)
}

// validateOriginalURL enforces the constraints on destination URLs.
func validateOriginalURL(rawURL string) error {
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("url exceeds maximum length of %d characters", maxURLLength)
	}
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url format: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url must have a host")
	}
	return nil
}
