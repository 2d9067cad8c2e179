package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phambaophuc/image-normalizer/internal/config"
	"github.com/redis/go-redis/v9"
)

var ErrNoObjectStore = errors.New("no object storage backend configured")

// ObjectStore is the blob backend normalized images are written to.
type ObjectStore interface {
	Name() string
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type StorageService struct {
	objects       ObjectStore
	redisClient   *redis.Client
	folder        string
	cacheDuration time.Duration
	jobTTL        time.Duration
}

type ServiceOptions struct {
	CacheDuration time.Duration
	JobTTL        time.Duration
	MaxRetries    int
	Timeout       time.Duration
}

var DefaultOptions = ServiceOptions{
	CacheDuration: 24 * time.Hour,
	JobTTL:        7 * 24 * time.Hour,
	MaxRetries:    3,
	Timeout:       30 * time.Second,
}

const (
	CacheKeyPrefix = "norm_cache:"
	JobKeyPrefix   = "norm_job:"
)

func NewStorageService(ctx context.Context, cfg *config.Config, opts ...ServiceOptions) (*StorageService, error) {
	options := DefaultOptions
	if len(opts) > 0 {
		options = opts[0]
	}
	if cfg.Storage.CacheDuration > 0 {
		options.CacheDuration = cfg.Storage.CacheDuration
	}

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   options.MaxRetries,
		DialTimeout:  options.Timeout,
		ReadTimeout:  options.Timeout,
		WriteTimeout: options.Timeout,
	})

	return NewStorageServiceWith(objects, redisClient, cfg.Storage.UploadFolder, options), nil
}

// NewStorageServiceWith assembles a service from already built clients.
// objects may be nil, in which case uploads fail with ErrNoObjectStore.
func NewStorageServiceWith(objects ObjectStore, redisClient *redis.Client, folder string, options ServiceOptions) *StorageService {
	return &StorageService{
		objects:       objects,
		redisClient:   redisClient,
		folder:        folder,
		cacheDuration: options.CacheDuration,
		jobTTL:        options.JobTTL,
	}
}

func newObjectStore(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendSupabase, "":
		if cfg.Supabase.URL == "" {
			return nil, nil
		}
		return newSupabaseStore(cfg.Supabase), nil
	case config.BackendS3:
		store, err := newS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (s *StorageService) HasObjectStore() bool {
	return s.objects != nil
}

func (s *StorageService) Close() error {
	if s.redisClient != nil {
		return s.redisClient.Close()
	}
	return nil
}
