package storage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/phambaophuc/image-normalizer/internal/services/processor"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GetFromCache returns the cached value for cacheKey, or nil on a miss.
func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	return s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err()
}

// GenerateCacheKey derives a key from the source bytes and every option
// that affects the normalized output.
func (s *StorageService) GenerateCacheKey(source []byte, opts processor.Options) string {
	hash := sha256.New()
	hash.Write(source)
	fmt.Fprintf(hash, "|w=%d|h=%d|q=%.4f|f=%s|t=%t",
		opts.MaxWidth, opts.MaxHeight, opts.Quality, opts.OutputFormat, opts.CreateThumbnail)

	return fmt.Sprintf("%s%x", CacheKeyPrefix, hash.Sum(nil))
}

// CleanupCache deletes cache entries that lost their expiry and returns how
// many were removed.
func (s *StorageService) CleanupCache(ctx context.Context) (int, error) {
	removed := 0
	iter := s.redisClient.Scan(ctx, 0, CacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := s.redisClient.TTL(ctx, key).Result()
		if err != nil {
			return removed, err
		}
		if ttl <= 0 {
			if err := s.redisClient.Del(ctx, key).Err(); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, iter.Err()
}

// RunCacheCleanup calls CleanupCache every interval until ctx is done.
func (s *StorageService) RunCacheCleanup(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.CleanupCache(ctx)
			if err != nil {
				logger.Warn("Cache cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("Cache cleanup removed stale entries", zap.Int("removed", removed))
			}
		}
	}
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	cached, err := s.countKeys(ctx, CacheKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	jobs, err := s.countKeys(ctx, JobKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"db_keys":     dbSize,
		"cached_keys": cached,
		"job_keys":    jobs,
	}

	return stats, nil
}

func (s *StorageService) countKeys(ctx context.Context, pattern string) (int, error) {
	count := 0
	iter := s.redisClient.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}
