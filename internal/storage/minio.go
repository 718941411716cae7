package storage

import (
	"context"
	"os"
	"path"
	"path/filepath"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// Publisher copies a committed GIF somewhere else and returns its key
type Publisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// Storage publishes GIFs to a MinIO or S3 compatible bucket
type Storage struct {
	client *miniogo.Client
	bucket string
	prefix string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}

	return &Storage{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrapf(err, "check bucket %s", s.bucket)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return errors.Wrapf(err, "create bucket %s", s.bucket)
		}
	}
	return nil
}

// ObjectKey returns the key a local file is uploaded under
func (s *Storage) ObjectKey(localPath string) string {
	return path.Join(s.prefix, filepath.Base(localPath))
}

func (s *Storage) Publish(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrap(err, "open gif")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrap(err, "stat gif")
	}

	key := s.ObjectKey(localPath)
	_, err = s.client.PutObject(ctx, s.bucket, key, f, info.Size(), miniogo.PutObjectOptions{
		ContentType: "image/gif",
	})
	if err != nil {
		return "", errors.Wrap(err, "upload gif")
	}
	return key, nil
}
