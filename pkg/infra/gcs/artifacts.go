package gcs

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
)

// Store archives run artifacts (coverage reports, step logs) in a Cloud
// Storage bucket
type Store struct {
	client *storage.Client
	bucket string
}

// NewStore connects to Cloud Storage for the given bucket
func NewStore(ctx context.Context, bucket string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}
	return &Store{
		client: client,
		bucket: bucket,
	}, nil
}

// Close releases the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

// Put writes one artifact object under the given key
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write artifact",
			goerr.V("bucket", s.bucket),
			goerr.V("key", key),
		)
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize artifact",
			goerr.V("bucket", s.bucket),
			goerr.V("key", key),
		)
	}
	return nil
}

var _ interfaces.ArtifactStore = (*Store)(nil)
