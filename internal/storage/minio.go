package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore хранит файлы в бакете S3-совместимого хранилища под ключами {folder}/{name}.
type MinioStore struct {
	client *mclient.Client
	bucket string
}

// NewMinioStore создаёт клиент MinIO и проверяет наличие бакета.
// Схема в endpoint определяет Secure.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string) (*MinioStore, error) {
	const op = "storage.NewMinioStore"

	host, secure := normalizeEndpoint(endpoint)
	client, err := mclient.New(host, &mclient.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, bucket)
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

func normalizeEndpoint(endpoint string) (string, bool) {
	// "host:port" url.Parse читает как схему, поэтому разбираем только http(s)
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return endpoint, false
	}
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host, u.Scheme == "https"
	}
	return endpoint, strings.HasPrefix(endpoint, "https://")
}

func objectKey(folder, name string) string {
	return path.Join(folder, name)
}

func (s *MinioStore) Save(ctx context.Context, folder, originalName string, r io.Reader) (string, error) {
	const op = "storage.MinioStore.Save"
	if !validName(folder) {
		return "", ErrInvalidName
	}
	name := StoredName(originalName)
	opts := mclient.PutObjectOptions{ContentType: mime.TypeByExtension(filepath.Ext(name))}
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey(folder, name), r, -1, opts); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return name, nil
}

func (s *MinioStore) Open(ctx context.Context, folder, name string) (io.ReadCloser, error) {
	const op = "storage.MinioStore.Open"
	if err := checkRef(folder, name); err != nil {
		return nil, err
	}
	key := objectKey(folder, name)
	// GetObject ленивый: отсутствие объекта видно только через StatObject
	if _, err := s.client.StatObject(ctx, s.bucket, key, mclient.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, mclient.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return obj, nil
}

func (s *MinioStore) Remove(ctx context.Context, folder, name string) error {
	const op = "storage.MinioStore.Remove"
	if err := checkRef(folder, name); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey(folder, name), mclient.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := mclient.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}

var _ FileStore = (*MinioStore)(nil)
