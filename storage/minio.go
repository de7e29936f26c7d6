package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"AriaVault/config"
	"AriaVault/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// CatalogStore is the object-store surface the catalog needs: prefix
// listings (with and without delimiter) and a single-object write.
type CatalogStore interface {
	// ListFolders returns the immediate child "folder" names under prefix,
	// trailing slash stripped, in whatever order the store yields them.
	ListFolders(ctx context.Context, prefix string) ([]string, error)
	// ListObjects returns all objects under prefix, recursively.
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// PutObject writes a single object under key.
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// MinioStore 封装了 MinIO 客户端
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore 创建一个新的 MinIO 目录存储并确保存储桶存在
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		logger.Info("Creating bucket", logger.String("bucket", cfg.MinioBucket))
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
	}

	return &MinioStore{
		client: client,
		bucket: cfg.MinioBucket,
	}, nil
}

// ListFolders 列出前缀下的直接子目录名称
func (s *MinioStore) ListFolders(ctx context.Context, prefix string) ([]string, error) {
	// Non-recursive listing yields common prefixes as entries whose key
	// ends with the delimiter.
	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})

	var names []string
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list folders under %s: %w", prefix, object.Err)
		}
		if !strings.HasSuffix(object.Key, "/") {
			continue // direct object at this level, not a folder
		}
		name := strings.TrimSuffix(strings.TrimPrefix(object.Key, prefix), "/")
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// ListObjects 递归列出前缀下的所有对象
func (s *MinioStore) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var objects []ObjectInfo
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}
	return objects, nil
}

// PutObject 将对象写入存储桶
func (s *MinioStore) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Ping 检查存储桶是否可达
func (s *MinioStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}
