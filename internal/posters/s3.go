package posters

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/samber/oops"

	"github.com/reelshelf/backend/internal/config"
)

// S3Storage keeps posters in an S3-compatible bucket.
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	baseURL  string
}

// NewS3Storage configures an uploader targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, oops.Code("POSTER_STORAGE_INVALID").Errorf("s3 bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, oops.Code("POSTER_STORAGE_INVALID").Wrapf(err, "load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newS3Storage(client, cfg.Bucket, cfg.PublicBaseURL), nil
}

func newS3Storage(client *s3.Client, bucket, baseURL string) *S3Storage {
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})
	return &S3Storage{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		prefix:   "posters/",
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// Save uploads r under posters/<name> and returns its public location.
func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if s == nil {
		return "", ErrStorageUnavailable
	}
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "", oops.Code("POSTER_SAVE_FAILED").Errorf("empty poster name")
	}
	key := s.prefix + name

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(r),
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", oops.Code("POSTER_SAVE_FAILED").With("key", key).Wrapf(err, "upload poster")
	}

	return s.location(key), nil
}

// Remove deletes the object behind location.
func (s *S3Storage) Remove(ctx context.Context, location string) error {
	if s == nil {
		return ErrStorageUnavailable
	}
	key, ok := s.keyFor(location)
	if !ok {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return oops.Code("POSTER_REMOVE_FAILED").With("key", key).Wrapf(err, "delete poster object")
	}
	return nil
}

func (s *S3Storage) location(key string) string {
	if s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + key
}

// keyFor maps a location produced by Save back to its object key.
func (s *S3Storage) keyFor(location string) (string, bool) {
	key := location
	if s.baseURL != "" {
		if !strings.HasPrefix(location, s.baseURL+"/") {
			return "", false
		}
		key = strings.TrimPrefix(location, s.baseURL+"/")
	}
	if !strings.HasPrefix(key, s.prefix) || key == s.prefix {
		return "", false
	}
	return key, true
}

var _ Storage = (*S3Storage)(nil)
