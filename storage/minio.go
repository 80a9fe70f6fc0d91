// Package storage, mesaj ekleri ve sunucu görselleri için nesne
// depolama soyutlaması. Mutasyon akışları Store interface'ine bağımlıdır;
// MinIO implementasyonu tek somut backend'dir.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/seyhanc/kumru/config"
	"github.com/seyhanc/kumru/pkg"
)

// Store, dosya yükleme/silme operasyonları.
//
// Upload bir (ref, url) çifti döner: ref depolamadaki nesne anahtarıdır
// ve silme için saklanır, url istemcilere verilen erişim adresidir.
// Delete best-effort çağrılır; nesnenin zaten yok olması hata değildir.
type Store interface {
	Upload(ctx context.Context, reader io.Reader, size int64, contentType, folder string) (ref string, url string, err error)
	Delete(ctx context.Context, ref string) error
}

// MinioStore, Store'un MinIO implementasyonu.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore, client'ı kurar ve bucket'ın varlığını garanti eder.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("[storage] bucket created: %s", cfg.Bucket)
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

func (s *MinioStore) Upload(ctx context.Context, reader io.Reader, size int64, contentType, folder string) (string, string, error) {
	ext := extensionFor(contentType)
	ref := path.Join(folder, uuid.NewString()+ext)

	_, err := s.client.PutObject(ctx, s.bucket, ref, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: upload failed: %v", pkg.ErrUpstream, err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, ref)
	return ref, url, nil
}

func (s *MinioStore) Delete(ctx context.Context, ref string) error {
	err := s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("%w: delete failed: %v", pkg.ErrUpstream, err)
	}

	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
