package infra

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"obraspm/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// AlmacenPDF keeps a copy of every printout that leaves the system by mail.
type AlmacenPDF interface {
	Guardar(ctx context.Context, nombre string, data []byte) (string, error)
}

// AlmacenLocal writes printouts under Dir.
type AlmacenLocal struct{ Dir string }

func (a AlmacenLocal) Guardar(_ context.Context, nombre string, data []byte) (string, error) {
	return GuardarPDF(a.Dir, nombre, data)
}

// AlmacenMinIO writes printouts to an S3-compatible bucket, one prefix per day.
type AlmacenMinIO struct {
	client *minio.Client
	bucket string
}

func NewAlmacenMinIO(ctx context.Context, cfg *config.Config) (*AlmacenMinIO, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("minio: bucket %s: %w", cfg.MinIOBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio: create bucket %s: %w", cfg.MinIOBucket, err)
		}
	}
	return &AlmacenMinIO{client: client, bucket: cfg.MinIOBucket}, nil
}

func (a *AlmacenMinIO) Guardar(ctx context.Context, nombre string, data []byte) (string, error) {
	objeto := path.Join("requisiciones", time.Now().Format("2006/01/02"), nombre)
	_, err := a.client.PutObject(ctx, a.bucket, objeto, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("minio: upload %s: %w", objeto, err)
	}
	return objeto, nil
}

// NewAlmacenPDF picks MinIO when MINIO_ENDPOINT is set and falls back to the
// local directory otherwise. Returns nil when neither is configured.
func NewAlmacenPDF(ctx context.Context, cfg *config.Config) AlmacenPDF {
	if cfg.MinIOEndpoint != "" {
		a, err := NewAlmacenMinIO(ctx, cfg)
		if err == nil {
			log.Info().Str("endpoint", cfg.MinIOEndpoint).Str("bucket", cfg.MinIOBucket).Msg("PDF archive: minio")
			return a
		}
		log.Warn().Err(err).Msg("PDF archive: minio unavailable, using local storage")
	}
	if cfg.PDFStoragePath == "" {
		return nil
	}
	return AlmacenLocal{Dir: cfg.PDFStoragePath}
}
