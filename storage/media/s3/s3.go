package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
	mediastore "github.com/indieinfra/cloudshelf/storage/media"
	storageutil "github.com/indieinfra/cloudshelf/storage/util"
)

// s3Client is the subset of the minio client the store relies on.
type s3Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

var newMinioClient = func(endpoint string, opts *minio.Options) (s3Client, error) {
	return minio.New(endpoint, opts)
}

// StoreImpl uploads media to S3 or any compatible service (R2, Backblaze, MinIO).
type StoreImpl struct {
	client         s3Client
	bucket         string
	prefix         string
	publicBase     string
	pattern        *storageutil.PathPattern
	forcePathStyle bool
	endpointHost   string
	secure         bool
	region         string
}

func NewS3MediaStore(cfg *config.Media) (*StoreImpl, error) {
	if cfg == nil || cfg.S3 == nil {
		return nil, fmt.Errorf("s3 media config is nil")
	}

	s3cfg := cfg.S3
	region := strings.TrimSpace(s3cfg.Region)
	if strings.EqualFold(region, "auto") {
		region = ""
	}

	secure := !s3cfg.DisableSSL
	endpointHost := strings.TrimSpace(s3cfg.Endpoint)
	if endpointHost == "" {
		if region == "" {
			endpointHost = "s3.amazonaws.com"
		} else {
			endpointHost = fmt.Sprintf("s3.%s.amazonaws.com", region)
		}
	} else if parsed, err := url.Parse(endpointHost); err == nil && parsed.Host != "" {
		endpointHost = parsed.Host
		if parsed.Scheme == "http" {
			secure = false
		}
	}

	lookup := minio.BucketLookupAuto
	if s3cfg.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := newMinioClient(endpointHost, &minio.Options{
		Creds:        credentials.NewStaticV4(s3cfg.AccessKeyId, s3cfg.SecretKeyId, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, s3cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to verify s3 bucket %q: %w", s3cfg.Bucket, err)
	}

	if !exists {
		return nil, fmt.Errorf("s3 bucket %q does not exist or is not accessible", s3cfg.Bucket)
	}

	return &StoreImpl{
		client:         client,
		bucket:         s3cfg.Bucket,
		prefix:         strings.Trim(s3cfg.Prefix, "/"),
		publicBase:     strings.TrimSuffix(strings.TrimSpace(s3cfg.PublicUrl), "/"),
		pattern:        storageutil.DefaultMediaPattern(),
		forcePathStyle: s3cfg.ForcePathStyle,
		endpointHost:   endpointHost,
		secure:         secure,
		region:         region,
	}, nil
}

func (s *StoreImpl) Upload(ctx context.Context, file *media.UploadedFile, kind media.Kind) (*mediastore.Asset, error) {
	if file == nil || file.Path == "" {
		return nil, fmt.Errorf("staged file is required")
	}

	f, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staged file: %w", err)
	}
	defer f.Close()

	size := file.Size
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	key, err := s.objectKey(file, kind)
	if err != nil {
		return nil, err
	}

	opts := minio.PutObjectOptions{ContentType: file.ContentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, f, size, opts); err != nil {
		return nil, fmt.Errorf("upload to s3 failed: %w", err)
	}

	return &mediastore.Asset{URL: s.objectURL(key), ID: key}, nil
}

func (s *StoreImpl) Delete(ctx context.Context, id string, kind media.Kind) error {
	key := strings.TrimPrefix(strings.TrimSpace(id), "/")
	if key == "" {
		return fmt.Errorf("object key is required")
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete from s3 failed: %w", err)
	}

	return nil
}

func (s *StoreImpl) objectKey(file *media.UploadedFile, kind media.Kind) (string, error) {
	pattern := s.pattern
	if pattern == nil {
		pattern = storageutil.DefaultMediaPattern()
	}

	key, err := pattern.Generate(kind.String(), storageutil.NewObjectName(file.Filename, file.ContentType), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to generate object key: %w", err)
	}

	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	return key, nil
}

func (s *StoreImpl) objectURL(key string) string {
	if s.publicBase != "" {
		return fmt.Sprintf("%s/%s", s.publicBase, key)
	}

	scheme := "http"
	if s.secure {
		scheme = "https"
	}

	if s.forcePathStyle {
		return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpointHost, s.bucket, key)
	}

	return fmt.Sprintf("%s://%s.%s/%s", scheme, s.bucket, s.endpointHost, key)
}
