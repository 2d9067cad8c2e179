package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phambaophuc/image-normalizer/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrJobNotFound = errors.New("job not found")

// SaveJob records the current state of job.
func (s *StorageService) SaveJob(ctx context.Context, job *models.NormalizeJob) error {
	job.UpdatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := s.redisClient.Set(ctx, JobKeyPrefix+job.ID, data, s.jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *StorageService) GetJob(ctx context.Context, id string) (*models.NormalizeJob, error) {
	data, err := s.redisClient.Get(ctx, JobKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}

	var job models.NormalizeJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}
