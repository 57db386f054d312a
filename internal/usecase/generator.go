package usecase

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"

	"shortlink/internal/domain"
	"shortlink/pkg/base62"

	"go.uber.org/zap"
)

const (
	// generatedCodeLength is the length of auto-generated short codes.
	// 62^6 ≈ 56.8 billion distinct codes.
	generatedCodeLength = 6

	// suffixProbes collision candidates are tried by appending a decimal
	// counter before falling back to rehashing.
	suffixProbes = 9

	// maxProbeAttempts bounds unique resolution before giving up.
	maxProbeAttempts = 1000
)

// ShortCodeGenerator derives a short code from a URL deterministically and
// probes the repository for a free one on collision. It only minimizes
// collision probability; atomic uniqueness is the storage constraint's job,
// so concurrent requests for the same URL may still race to Create.
type ShortCodeGenerator struct {
	repo   URLRepository
	logger *zap.Logger
}

// NewShortCodeGenerator creates a generator probing against repo.
func NewShortCodeGenerator(repo URLRepository, logger *zap.Logger) *ShortCodeGenerator {
	return &ShortCodeGenerator{repo: repo, logger: logger}
}

// Generate produces a short code for originalURL. Identical input yields an
// identical proposed code; the final code depends on repository state only
// when the proposal collides.
func (g *ShortCodeGenerator) Generate(ctx context.Context, originalURL string) (domain.ShortCode, error) {
	base := base62.EncodeFixed(hash64(originalURL), generatedCodeLength)

	exists, err := g.repo.ExistsByShortCode(ctx, base)
	if err != nil {
		return domain.ShortCode{}, err
	}
	if !exists {
		return domain.NewShortCode(base)
	}

	g.logger.Debug("short code collision, resolving",
		zap.String("base", base),
	)
	return g.resolveUnique(ctx, base)
}

// resolveUnique probes for a free code derived from base. Counters 1-9
// append the counter to the base; from 10 on the (base, counter) pair is
// rehashed and re-encoded to keep codes at the generated length.
func (g *ShortCodeGenerator) resolveUnique(ctx context.Context, base string) (domain.ShortCode, error) {
	for counter := 1; counter <= maxProbeAttempts; counter++ {
		var candidate string
		if counter <= suffixProbes {
			candidate = base + strconv.Itoa(counter)
		} else {
			candidate = base62.EncodeFixed(hash64(base+":"+strconv.Itoa(counter)), generatedCodeLength)
		}

		exists, err := g.repo.ExistsByShortCode(ctx, candidate)
		if err != nil {
			return domain.ShortCode{}, err
		}
		if !exists {
			return domain.NewShortCode(candidate)
		}
	}
	return domain.ShortCode{}, fmt.Errorf("%w: %d attempts", domain.ErrTooManyCollisions, maxProbeAttempts)
}

// hash64 is FNV-1a: fast, non-cryptographic, stable across processes.
func hash64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
