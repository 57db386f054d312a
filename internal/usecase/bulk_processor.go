package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// bulkChunkSize is how many ids one repository batch call covers.
	bulkChunkSize = 10

	// DefaultBulkPacing is the fixed delay between units of work. It is a
	// crude backpressure valve, not adaptive to load.
	DefaultBulkPacing = 100 * time.Millisecond
)

var (
	errMissingStatus     = errors.New("update_status requires a status value")
	errMissingExpiration = errors.New("update_expiration requires an expiration time")
)

// BulkOperationProcessor drives chunked bulk mutations in the background.
//
// Process marks the operation Processing and returns immediately; a
// goroutine works through the ids in chunks, flushing counters to the
// tracker after every unit and re-reading the operation status between
// units so a cancellation takes effect at the next chunk boundary. A chunk
// already in flight always finishes.
type BulkOperationProcessor struct {
	repo    URLRepository
	urls    *URLService
	tracker *ProgressTracker
	logger  *zap.Logger
	pacing  time.Duration
}

// NewBulkOperationProcessor creates a processor. A non-positive pacing
// disables the inter-chunk delay (used by tests).
func NewBulkOperationProcessor(repo URLRepository, urls *URLService, tracker *ProgressTracker, logger *zap.Logger, pacing time.Duration) *BulkOperationProcessor {
	return &BulkOperationProcessor{
		repo:    repo,
		urls:    urls,
		tracker: tracker,
		logger:  logger,
		pacing:  pacing,
	}
}

// Process launches a bulk mutation over ids on behalf of actor. It returns
// once the operation is marked Processing; the outcome, including partial
// failure, is discoverable only through the progress tracker.
func (p *BulkOperationProcessor) Process(ctx context.Context, opID string, kind domain.BulkOperationKind, ids []int64, params domain.BulkParams, actor string) error {
	if !kind.Valid() || kind == domain.BulkCreate {
		return fmt.Errorf("unsupported bulk mutation kind %q", kind)
	}
	if err := p.tracker.Start(opID); err != nil {
		return err
	}
	go p.runMutation(opID, kind, ids, params, actor)
	return nil
}

// ProcessCreation launches a bulk URL creation. Creation items are handled
// one at a time rather than in chunks.
func (p *BulkOperationProcessor) ProcessCreation(ctx context.Context, opID string, requests []domain.BulkCreateRequest, actor string) error {
	if err := p.tracker.Start(opID); err != nil {
		return err
	}
	go p.runCreation(opID, requests, actor)
	return nil
}

func (p *BulkOperationProcessor) runMutation(opID string, kind domain.BulkOperationKind, ids []int64, params domain.BulkParams, actor string) {
	// Background work outlives the submitting request.
	ctx := context.Background()
	limiter := rate.NewLimiter(rate.Every(p.pacing), 1)

	var processed, successful, failed int
	for i, chunk := range lo.Chunk(ids, bulkChunkSize) {
		if p.cancelled(opID) {
			p.logger.Info("bulk operation cancelled",
				zap.String("operation_id", opID),
				zap.Int("processed", processed),
			)
			return
		}
		if i > 0 {
			_ = limiter.Wait(ctx)
		}

		res, err := p.dispatch(ctx, kind, chunk, params, actor)
		processed += len(chunk)
		if err != nil {
			// Covers both malformed parameters (the unit is skipped) and a
			// whole-chunk repository failure. No per-item detail is
			// recoverable either way, so every id in the chunk counts as
			// failed.
			failed += len(chunk)
			p.logger.Warn("bulk chunk not applied",
				zap.String("operation_id", opID),
				zap.String("kind", string(kind)),
				zap.Int64s("ids", chunk),
				zap.Error(err),
			)
		} else {
			successful += res.Successful
			failed += res.Failed
		}

		if err := p.tracker.UpdateProgress(opID, processed, successful, failed); err != nil {
			p.logger.Warn("progress update failed",
				zap.String("operation_id", opID),
				zap.Error(err),
			)
		}
	}
}

func (p *BulkOperationProcessor) runCreation(opID string, requests []domain.BulkCreateRequest, actor string) {
	ctx := context.Background()
	limiter := rate.NewLimiter(rate.Every(p.pacing), 1)

	var processed, successful, failed int
	for i, req := range requests {
		if p.cancelled(opID) {
			p.logger.Info("bulk creation cancelled",
				zap.String("operation_id", opID),
				zap.Int("processed", processed),
			)
			return
		}
		if i > 0 {
			_ = limiter.Wait(ctx)
		}

		processed++
		if _, err := p.urls.CreateURL(ctx, actor, req.OriginalURL, req.CustomCode, req.ExpiresAt); err != nil {
			failed++
			p.logger.Warn("bulk creation item failed",
				zap.String("operation_id", opID),
				zap.String("original_url", req.OriginalURL),
				zap.Error(err),
			)
		} else {
			successful++
		}

		if err := p.tracker.UpdateProgress(opID, processed, successful, failed); err != nil {
			p.logger.Warn("progress update failed",
				zap.String("operation_id", opID),
				zap.Error(err),
			)
		}
	}
}

// dispatch maps the operation kind onto the matching repository primitive.
func (p *BulkOperationProcessor) dispatch(ctx context.Context, kind domain.BulkOperationKind, ids []int64, params domain.BulkParams, actor string) (*domain.BatchResult, error) {
	switch kind {
	case domain.BulkDeactivate:
		return p.repo.BatchDeactivate(ctx, ids, actor)
	case domain.BulkReactivate:
		return p.repo.BatchReactivate(ctx, ids, actor)
	case domain.BulkDelete:
		return p.repo.BatchDelete(ctx, ids, actor)
	case domain.BulkUpdateStatus:
		if params.Active == nil {
			return nil, errMissingStatus
		}
		return p.repo.BatchUpdateStatus(ctx, ids, actor, *params.Active)
	case domain.BulkUpdateExpiration:
		if params.ExpiresAt == nil {
			return nil, errMissingExpiration
		}
		return p.repo.BatchUpdateExpiration(ctx, ids, actor, params.ExpiresAt)
	}
	return nil, fmt.Errorf("unsupported bulk mutation kind %q", kind)
}

func (p *BulkOperationProcessor) cancelled(opID string) bool {
	op, err := p.tracker.Progress(opID)
	if err != nil {
		// The record was evicted under us; stop quietly.
		return true
	}
	return op.Status == domain.StatusCancelled
}
