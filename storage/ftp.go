package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
)

type FTPConfig struct {
	Addr     string
	User     string
	Password string
	// Dir is the remote directory uploads are written into. Empty means the
	// login directory.
	Dir string
}

// FTP opens one connection per upload; intake traffic is far too low to
// justify keeping a control connection alive.
type FTP struct {
	cfg FTPConfig
}

func NewFTP(cfg FTPConfig) *FTP {
	if cfg.User == "" {
		cfg.User = "anonymous"
		cfg.Password = "anonymous"
	}
	return &FTP{cfg: cfg}
}

func (f *FTP) StoreFile(ctx context.Context, r io.Reader, b Blob) (string, error) {
	if err := checkName(b.Name); err != nil {
		return "", err
	}

	conn, err := ftp.Dial(f.cfg.Addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return "", fmt.Errorf("unable to connect to %s: %w", f.cfg.Addr, err)
	}
	defer conn.Quit()

	if err := conn.Login(f.cfg.User, f.cfg.Password); err != nil {
		return "", fmt.Errorf("unable to log in to %s: %w", f.cfg.Addr, err)
	}

	if f.cfg.Dir != "" {
		if err := conn.ChangeDir(f.cfg.Dir); err != nil {
			return "", fmt.Errorf("unable to change to directory %s: %w", f.cfg.Dir, err)
		}
	}

	// STOR truncates an existing file
	if err := conn.Stor(b.Name, r); err != nil {
		return "", fmt.Errorf("unable to store %s: %w", b.Name, err)
	}

	return fmt.Sprintf("ftp://%s/%s", f.cfg.Addr, path.Join(f.cfg.Dir, b.Name)), nil
}
