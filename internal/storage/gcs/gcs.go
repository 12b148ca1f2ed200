// Package gcs implements storage.Store on Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Endpoint returns the storage API endpoint for a region. An empty region
// selects the global endpoint.
func Endpoint(region string) string {
	if region == "" {
		return "https://storage.googleapis.com"
	}
	return fmt.Sprintf("https://%s-storage.googleapis.com", region)
}

// Store is a storage.Store bound to one GCS bucket.
type Store struct {
	client *gstorage.Client
	bucket string
}

// New creates a GCS store for the named bucket. A non-empty region routes
// requests through the regional endpoint.
func New(ctx context.Context, bucket, region string, opts ...option.ClientOption) (*Store, error) {
	if region != "" {
		opts = append(opts, option.WithEndpoint(Endpoint(region)))
	}
	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// Get reads the object at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", s.bucket, key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// Put writes data to the object at key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", s.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// List returns object keys under prefix. Directory placeholders (keys ending
// in "/") are dropped.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := s.client.Bucket(s.bucket).Objects(ctx, &gstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", s.bucket, prefix, err)
		}
		if len(attrs.Name) > 0 && attrs.Name[len(attrs.Name)-1] == '/' {
			continue
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// URI returns the gs:// URI for a key in the store's bucket.
func (s *Store) URI(key string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, key)
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
