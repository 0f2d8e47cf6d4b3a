package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"3nt3/datamakeover/config"
)

// ErrInvalidName is returned for blob names a backend cannot store as-is.
var ErrInvalidName = errors.New("invalid blob name")

type Blob struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	// Size is -1 when unknown.
	Size int64 `json:"size"`
}

// StorageProvider writes a blob into a fixed container. A write with an
// existing name replaces the previous content. The returned string is a
// human readable location of the stored blob.
type StorageProvider interface {
	StoreFile(ctx context.Context, r io.Reader, blob Blob) (string, error)
}

// New builds the backend selected in cfg.
func New(ctx context.Context, cfg config.Storage, log *slog.Logger) (StorageProvider, error) {
	switch cfg.Backend {
	case config.BackendAzure:
		return NewAzure(cfg.AzureConnectionString, cfg.Container)
	case config.BackendS3:
		return NewS3(S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			Region:    cfg.S3Region,
			Bucket:    cfg.Container,
		})
	case config.BackendGDrive:
		return NewGoogleDrive(ctx, DriveConfig{
			CredentialsFile: cfg.DriveCredentialsFile,
			TokenDB:         cfg.DriveTokenDB,
			RedirectURL:     cfg.DriveRedirectURL,
			Account:         cfg.DriveAccount,
			Folder:          cfg.Container,
		}, log)
	case config.BackendFTP:
		return NewFTP(FTPConfig{
			Addr:     cfg.FTPAddr,
			User:     cfg.FTPUser,
			Password: cfg.FTPPassword,
			Dir:      cfg.Container,
		}), nil
	case config.BackendLocal:
		return NewLocal(cfg.LocalDir, cfg.Container)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// Close releases backend resources if the backend holds any.
func Close(p StorageProvider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
