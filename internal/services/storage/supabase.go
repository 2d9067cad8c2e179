package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/image-normalizer/internal/config"
	storage_go "github.com/supabase-community/storage-go"
)

type supabaseStore struct {
	client *storage_go.Client
	bucket string
}

func newSupabaseStore(cfg config.SupabaseConfig) *supabaseStore {
	return &supabaseStore{
		client: storage_go.NewClient(cfg.URL+"/storage/v1", cfg.KEY, nil),
		bucket: cfg.BUCKET,
	}
}

func (s *supabaseStore) Name() string {
	return "supabase"
}

func (s *supabaseStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.client.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

func (s *supabaseStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download from supabase: %w", err)
	}
	return data, nil
}

func (s *supabaseStore) Remove(ctx context.Context, key string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{key})
	return err
}

func (s *supabaseStore) Ping(ctx context.Context) error {
	_, err := s.client.ListFiles(s.bucket, "", storage_go.FileSearchOptions{})
	return err
}
