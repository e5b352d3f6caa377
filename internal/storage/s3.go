package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"dentalhub/config"
)

var (
	ErrEmptyFile   = errors.New("пустые данные файла")
	ErrNotAnImage  = errors.New("файл не является изображением")
	ErrForeignFile = errors.New("файл не принадлежит хранилищу")
)

type S3Storage struct {
	client *minio.Client
	cfg    config.S3Config
	logger *zap.Logger
}

func NewS3Storage(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента S3: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета: %w", err)
		}
		logger.Info("создан бакет S3", zap.String("bucket", cfg.Bucket))
	}

	return &S3Storage{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (s *S3Storage) UploadImage(ctx context.Context, folder string, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	fileType := http.DetectContentType(data)
	if !strings.HasPrefix(fileType, "image/") {
		return "", ErrNotAnImage
	}

	objectName := fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.New().String(), imageExt(filename, fileType))

	_, err := s.client.PutObject(ctx, s.cfg.Bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: fileType,
	})
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки файла в S3: %w", err)
	}

	return s.baseURL() + objectName, nil
}

func (s *S3Storage) DeleteFile(ctx context.Context, fileURL string) error {
	if fileURL == "" {
		return nil
	}

	objectName, err := ObjectName(s.baseURL(), fileURL)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("ошибка удаления файла из S3: %w", err)
	}

	return nil
}

// baseURL is the prefix every public object URL of the bucket starts with.
func (s *S3Storage) baseURL() string {
	if s.cfg.PublicURL != "" {
		return fmt.Sprintf("%s/%s/", strings.TrimRight(s.cfg.PublicURL, "/"), s.cfg.Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.cfg.Bucket, s.cfg.Region)
}

// ObjectName extracts the object key from a URL produced for base.
func ObjectName(base, fileURL string) (string, error) {
	if !strings.HasPrefix(fileURL, base) || len(fileURL) == len(base) {
		return "", fmt.Errorf("%w: %s", ErrForeignFile, fileURL)
	}
	return strings.TrimPrefix(fileURL, base), nil
}

func imageExt(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".bin"
}
