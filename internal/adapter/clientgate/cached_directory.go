package clientgate

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/balanceledger/internal/usecase"
)

var knownOwner = []byte("1")

// CachedDirectory remembers owners that were found. Negative answers and
// failures are never cached so a newly created client is seen at once.
type CachedDirectory struct {
	next  usecase.OwnerDirectory
	cache usecase.Cache
	ttl   time.Duration
}

// NewCachedDirectory wraps next with cache.
func NewCachedDirectory(next usecase.OwnerDirectory, cache usecase.Cache, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{next: next, cache: cache, ttl: ttl}
}

// Exists consults the cache before asking next. Cache errors fall through to next.
func (d *CachedDirectory) Exists(ctx context.Context, ownerID string) (bool, error) {
	logger := zerolog.Ctx(ctx)

	if _, err := d.cache.Get(ctx, ownerID); err == nil {
		return true, nil
	} else if !errors.Is(err, usecase.ErrCacheMiss) {
		logger.Warn().Err(err).Str("owner_id", ownerID).Msg("owner cache read failed")
	}

	found, err := d.next.Exists(ctx, ownerID)
	if err != nil || !found {
		return found, err
	}

	if err := d.cache.Set(ctx, ownerID, knownOwner, d.ttl); err != nil {
		logger.Warn().Err(err).Str("owner_id", ownerID).Msg("owner cache write failed")
	}

	return true, nil
}
