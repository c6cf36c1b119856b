// Package storage is the MinIO-backed object store for import uploads and
// their generated error reports.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"admissions_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// reportURLTTL is how long a generated error-report download link stays
// valid.
const reportURLTTL = 24 * time.Hour

// MinIOService stores import files and error reports in MinIO. It implements
// the importer's ReportStore port.
type MinIOService struct {
	client        *minio.Client
	filesBucket   string
	reportsBucket string
}

func NewMinIOService(cfg config.StorageConfig) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{
		client:        client,
		filesBucket:   cfg.GetMinioBucketImportFiles(),
		reportsBucket: cfg.GetMinioBucketImportReports(),
	}, nil
}

// EnsureBuckets creates the configured buckets if they don't exist. Called
// once at startup.
func (s *MinIOService) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.filesBucket, s.reportsBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

// SaveImportFile archives the raw upload and returns its object key.
func (s *MinIOService) SaveImportFile(ctx context.Context, name string, data []byte) (string, error) {
	key := uniqueKey("imports", name)
	_, err := s.client.PutObject(ctx, s.filesBucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentTypeFor(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive import file %s: %w", key, err)
	}
	return key, nil
}

// SaveErrorReport stores a generated CSV error report and returns a presigned
// download URL.
func (s *MinIOService) SaveErrorReport(ctx context.Context, name string, data []byte) (string, error) {
	key := uniqueKey("reports", name)
	_, err := s.client.PutObject(ctx, s.reportsBucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store error report %s: %w", key, err)
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.reportsBucket, key, reportURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign error report %s: %w", key, err)
	}
	return presigned.String(), nil
}

// uniqueKey prefixes the name with a date folder and a short random id so
// repeated imports of the same file never overwrite each other.
func uniqueKey(folder, name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(path.Base(name), ext)
	return fmt.Sprintf("%s/%s/%s_%s%s",
		folder, time.Now().Format("2006-01-02"), base, uuid.New().String()[:8], ext)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	default:
		return "application/octet-stream"
	}
}
