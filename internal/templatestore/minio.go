// Package templatestore 模板笔记本的对象存储(MinIO)。
package templatestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/notebooks/runner/internal/notebook"
	"github.com/notebooks/runner/pkg/config"
	"go.uber.org/zap"
)

const contentType = "application/x-ipynb+json"

// Store 模板笔记本存储
type Store struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// TemplateInfo 模板对象元数据
type TemplateInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`
}

// New 创建存储客户端并确保bucket存在
func New(cfg config.MinioConfig, logger *zap.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &Store{client: client, bucket: cfg.Bucket, logger: logger}
	if err := s.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		s.logger.Info("created template bucket", zap.String("bucket", s.bucket))
	}
	return nil
}

// Upload 上传模板，内容必须是结构完整的笔记本
func (s *Store) Upload(ctx context.Context, objectName string, content []byte) (*TemplateInfo, error) {
	if !strings.HasSuffix(objectName, ".ipynb") {
		objectName += ".ipynb"
	}
	if _, err := notebook.Parse(content); err != nil {
		return nil, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("failed to upload template: %w", err)
	}

	return &TemplateInfo{
		Name: objectName,
		Size: info.Size,
		ETag: info.ETag,
	}, nil
}

// Get 读取模板内容并校验结构
func (s *Store) Get(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("template not found: %s", objectName)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("template not found: %s", objectName)
	}
	if _, err := notebook.Parse(content); err != nil {
		return nil, err
	}
	return content, nil
}

// Stat 查询模板元数据
func (s *Store) Stat(ctx context.Context, objectName string) (*TemplateInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("template not found: %s", objectName)
	}
	return &TemplateInfo{
		Name:         objectName,
		Size:         stat.Size,
		ETag:         stat.ETag,
		LastModified: stat.LastModified,
	}, nil
}

// List 列出bucket中的模板
func (s *Store) List(ctx context.Context, prefix string) ([]TemplateInfo, error) {
	var templates []TemplateInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".ipynb") {
			continue
		}
		templates = append(templates, TemplateInfo{
			Name:         obj.Key,
			Size:         obj.Size,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
	}
	return templates, nil
}

// Delete 删除模板
func (s *Store) Delete(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
}

// PresignedURL 生成模板的限时下载链接
func (s *Store) PresignedURL(ctx context.Context, objectName string, expires time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expires, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate url: %w", err)
	}
	return u.String(), nil
}

// Instantiate 将模板落盘到本地路径（目录containment由调用方先校验）
func (s *Store) Instantiate(ctx context.Context, objectName, destPath string) error {
	content, err := s.Get(ctx, objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := os.WriteFile(destPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}
