package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/facilitydesk/facilitydesk/internal/config"
	"github.com/facilitydesk/facilitydesk/internal/institution"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStorage keeps attachments as objects keyed <institution>/media/<filename>.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage creates the client and ensures the bucket exists.
func NewMinIOStorage(cfg config.MinIOConfig) (*MinIOStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStorage{client: mc, bucket: cfg.Bucket}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

func objectKey(institutionID, filename string) string {
	return path.Join(institutionID, institution.MediaDirName, filename)
}

func (s *MinIOStorage) Save(ctx context.Context, institutionID, filename string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(institutionID, filename), r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *MinIOStorage) Open(ctx context.Context, institutionID, filename string) (*Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(institutionID, filename), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, minioErr(err)
	}
	return &Object{ReadCloser: obj, Size: info.Size, ContentType: info.ContentType, ModTime: info.LastModified}, nil
}

func (s *MinIOStorage) Remove(ctx context.Context, institutionID, filename string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectKey(institutionID, filename), minio.RemoveObjectOptions{})
	if errors.Is(minioErr(err), ErrNotFound) {
		return nil
	}
	return err
}

// minioErr maps a missing object onto ErrNotFound.
func minioErr(err error) error {
	if err == nil {
		return nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrNotFound
	}
	return err
}

func (s *MinIOStorage) List(ctx context.Context, institutionID string) ([]string, error) {
	prefix := path.Join(institutionID, institution.MediaDirName) + "/"
	var out []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, path.Base(obj.Key))
	}
	return out, nil
}
