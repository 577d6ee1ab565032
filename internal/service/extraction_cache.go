package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"snapstudy/internal/cache"
	"snapstudy/internal/domain"
	"snapstudy/internal/logger"

	"go.uber.org/zap"
)

const extractionCacheExpiration = 7 * 24 * time.Hour

// ExtractionCacheService caches per-image extraction responses keyed by
// image content hash. Re-uploading the same photograph skips the model
// call entirely; image bytes are either identical or they are not, so no
// similarity matching is needed.
type ExtractionCacheService interface {
	GetExtraction(ctx context.Context, image []byte) (string, bool)
	PutExtraction(ctx context.Context, image []byte, text string)
}

type extractionCacheServiceImpl struct {
	cache domain.Cache
}

// NewExtractionCacheService creates a new ExtractionCacheService. A nil
// cache disables caching; both methods degrade to no-ops.
func NewExtractionCacheService(c domain.Cache) ExtractionCacheService {
	return &extractionCacheServiceImpl{cache: c}
}

func extractionCacheKey(image []byte) string {
	sum := sha256.Sum256(image)
	return cache.GenerateCacheKey("study", "extraction", hex.EncodeToString(sum[:]))
}

// GetExtraction returns the cached extraction text for an image, if any.
func (s *extractionCacheServiceImpl) GetExtraction(ctx context.Context, image []byte) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	key := extractionCacheKey(image)
	text, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("extraction cache read failed", zap.Error(err), zap.String("key", key))
		}
		return "", false
	}
	logger.Get().Info("extraction cache hit", zap.String("key", key))
	return text, true
}

// PutExtraction stores extraction text for an image. Failures are logged
// and swallowed; caching is never load-bearing.
func (s *extractionCacheServiceImpl) PutExtraction(ctx context.Context, image []byte, text string) {
	if s.cache == nil || text == "" {
		return
	}
	key := extractionCacheKey(image)
	if err := s.cache.Set(ctx, key, text, extractionCacheExpiration); err != nil {
		logger.Get().Warn("extraction cache write failed", zap.Error(err), zap.String("key", key))
	}
}
