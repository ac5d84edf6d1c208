package storage

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/lk2023060901/doc-hub-backend/internal/pkg/minio"
)

// ObjectStat is the subset of object metadata the pipeline cares about.
type ObjectStat struct {
	Key       string
	SizeBytes int64
	ETag      string
}

// Gateway abstracts the object store so business logic and tests never
// touch the MinIO client directly.
type Gateway interface {
	// PresignPut returns a URL the client can PUT bytes to
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)

	// PresignGet returns a time-limited download URL
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Head stats an object without reading it
	Head(ctx context.Context, key string) (ObjectStat, error)

	// Get opens an object for streaming reads
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put writes an object
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Copy copies an object server-side within the bucket
	Copy(ctx context.Context, srcKey, dstKey string) error

	// Delete removes an object; deleting a missing object is not an error
	Delete(ctx context.Context, key string) error

	// IsNotFound reports whether err means the object does not exist
	IsNotFound(err error) bool
}

type minioGateway struct {
	client *minio.Client
	bucket string
}

// NewMinIOGateway creates a Gateway backed by the configured bucket.
func NewMinIOGateway(client *minio.Client) Gateway {
	return &minioGateway{
		client: client,
		bucket: client.Bucket(),
	}
}

func (g *minioGateway) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := g.client.PresignedPutObject(ctx, g.bucket, key, expiry)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (g *minioGateway) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := g.client.PresignedGetObject(ctx, g.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (g *minioGateway) Head(ctx context.Context, key string) (ObjectStat, error) {
	info, err := g.client.StatObject(ctx, g.bucket, key)
	if err != nil {
		return ObjectStat{}, err
	}
	return ObjectStat{
		Key:       info.Key,
		SizeBytes: info.Size,
		ETag:      info.ETag,
	}, nil
}

func (g *minioGateway) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return g.client.GetObject(ctx, g.bucket, key)
}

func (g *minioGateway) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := g.client.PutObject(ctx, g.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (g *minioGateway) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := g.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: g.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: g.bucket, Object: srcKey},
	)
	return err
}

func (g *minioGateway) Delete(ctx context.Context, key string) error {
	return g.client.RemoveObject(ctx, g.bucket, key)
}

func (g *minioGateway) IsNotFound(err error) bool {
	return minio.IsNotFound(err)
}
