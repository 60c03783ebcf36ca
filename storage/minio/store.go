// Package minio provides an S3 compatible object store for songvault backed by
// the MinIO client. The bucket is created lazily before the first write.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/apollo-music/songvault"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the settings for connecting to an S3 compatible server.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	// PublicURL prefixes the locations returned by Put. Defaults to the
	// endpoint with the scheme implied by UseSSL.
	PublicURL string `mapstructure:"public_url"`
}

// Store keeps blobs as objects in a single bucket.
type Store struct {
	client  *minio.Client
	bucket  string
	region  string
	baseURL string

	bucketReady atomic.Bool
	bucketMu    sync.Mutex
}

// New creates a Store. No request is made until the first operation.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("new minio store: endpoint cannot be empty")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("new minio store: bucket cannot be empty")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new minio store: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: strings.TrimRight(publicURL, "/") + "/" + cfg.Bucket,
	}, nil
}

// ensureBucket creates the bucket on first use. Concurrent callers wait for
// the first one; a failure is retried on the next call.
func (s *Store) ensureBucket(ctx context.Context) error {
	if s.bucketReady.Load() {
		return nil
	}

	s.bucketMu.Lock()
	defer s.bucketMu.Unlock()

	if s.bucketReady.Load() {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
		if err != nil && !isCode(err, "BucketAlreadyOwnedByYou", "BucketAlreadyExists") {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}

	s.bucketReady.Store(true)
	return nil
}

// Put uploads content as an object named name. A negative size streams with
// multipart upload.
func (s *Store) Put(ctx context.Context, name songvault.StorageName, content io.Reader, size int64, contentType string) (songvault.PutResult, error) {
	if !songvault.IsValidStorageName(string(name)) {
		return songvault.PutResult{}, fmt.Errorf("put %q: %w", name, songvault.ErrInvalidInput)
	}

	if err := s.ensureBucket(ctx); err != nil {
		return songvault.PutResult{}, fmt.Errorf("put %s: %w", name, err)
	}

	info, err := s.client.PutObject(ctx, s.bucket, string(name), content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return songvault.PutResult{}, fmt.Errorf("put %s: %w", name, err)
	}

	return songvault.PutResult{
		Name:     name,
		Location: s.location(name),
		Size:     info.Size,
	}, nil
}

// Get opens the object for reading. Returns songvault.ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, name songvault.StorageName) (songvault.Blob, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, string(name), minio.GetObjectOptions{})
	if err != nil {
		return songvault.Blob{}, s.mapErr("get", name, err)
	}

	// GetObject is lazy; Stat performs the request and surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return songvault.Blob{}, s.mapErr("get", name, err)
	}

	return songvault.Blob{
		Body:        obj,
		ContentType: info.ContentType,
		Size:        info.Size,
	}, nil
}

// Delete removes the object. Returns songvault.ErrNotFound if it does not exist.
func (s *Store) Delete(ctx context.Context, name songvault.StorageName) error {
	// RemoveObject succeeds for missing keys, so check first.
	if _, err := s.client.StatObject(ctx, s.bucket, string(name), minio.StatObjectOptions{}); err != nil {
		return s.mapErr("delete", name, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, string(name), minio.RemoveObjectOptions{}); err != nil {
		return s.mapErr("delete", name, err)
	}

	return nil
}

// Resolve extracts the object name from a location of the form
// <public url>/<bucket>/<name>.
func (s *Store) Resolve(location string) (songvault.StorageName, error) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(location, prefix) {
		return "", fmt.Errorf("resolve %q: location does not belong to bucket %s", location, s.bucket)
	}

	name, err := url.PathUnescape(strings.TrimPrefix(location, prefix))
	if err != nil || !songvault.IsValidStorageName(name) {
		return "", fmt.Errorf("resolve %q: invalid object name", location)
	}

	return songvault.StorageName(name), nil
}

// List returns every object in the bucket whose key is a valid storage name.
// A bucket that does not exist yet is empty.
func (s *Store) List(ctx context.Context) ([]songvault.StoredObject, error) {
	objects := []songvault.StoredObject{}

	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			if isCode(info.Err, "NoSuchBucket") {
				return objects, nil
			}
			return nil, fmt.Errorf("list objects: %w", info.Err)
		}

		// keys written by other tools may not be valid storage names
		if !songvault.IsValidStorageName(info.Key) {
			continue
		}

		objects = append(objects, songvault.StoredObject{
			Name:         songvault.StorageName(info.Key),
			Size:         info.Size,
			ContentType:  songvault.ContentTypeByName(info.Key),
			LastModified: info.LastModified,
		})
	}

	return objects, nil
}

func (s *Store) location(name songvault.StorageName) string {
	return s.baseURL + "/" + url.PathEscape(string(name))
}

func (s *Store) mapErr(op string, name songvault.StorageName, err error) error {
	if isCode(err, "NoSuchKey", "NoSuchBucket") {
		return songvault.ErrNotFound
	}
	return fmt.Errorf("%s %s: %w", op, name, err)
}

func isCode(err error, codes ...string) bool {
	code := minio.ToErrorResponse(err).Code
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}
