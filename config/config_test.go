package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func parse(t *testing.T, args ...string) (Config, error) {
	t.Helper()

	var (
		cfg    Config
		cfgErr error
	)
	app := &cli.App{
		Name:  "test",
		Flags: Flags(),
		Action: func(c *cli.Context) error {
			cfg, cfgErr = FromCLI(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return cfg, cfgErr
}

func TestFromCLIDefaults(t *testing.T) {
	cfg, err := parse(t, "--storage", "local")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, "./uploads", cfg.Storage.LocalDir)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.Host)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.False(t, cfg.Mail.Enabled())
	assert.False(t, cfg.Telegram.Enabled())
}

func TestFromCLIEnvironment(t *testing.T) {
	t.Setenv("AZURE_BLOB_CONNECTION_STRING", "DefaultEndpointsProtocol=https;AccountName=x")
	t.Setenv("AZURE_BLOB_CONTAINER_NAME", "uploads")
	t.Setenv("SENDER_EMAIL", "bot@example.com")
	t.Setenv("RECEIVER_EMAIL", "admin@example.com")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := parse(t)
	require.NoError(t, err)

	assert.Equal(t, BackendAzure, cfg.Storage.Backend)
	assert.Equal(t, "uploads", cfg.Storage.Container)
	assert.Equal(t, "admin@example.com", cfg.Mail.Admin)
	assert.True(t, cfg.Mail.Enabled())
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		storage Storage
		wantErr string
	}{
		{
			name:    "azure without connection string",
			storage: Storage{Backend: BackendAzure, Container: "c"},
			wantErr: "AZURE_BLOB_CONNECTION_STRING",
		},
		{
			name:    "s3 without bucket",
			storage: Storage{Backend: BackendS3, S3Endpoint: "minio:9000", S3AccessKey: "a", S3SecretKey: "s"},
			wantErr: "STORAGE_CONTAINER",
		},
		{
			name:    "unknown backend",
			storage: Storage{Backend: "dropbox"},
			wantErr: "unknown storage backend",
		},
		{
			name:    "ftp",
			storage: Storage{Backend: BackendFTP, FTPAddr: "ftp.example.com:21"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Config{Storage: tt.storage}.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateMailNeedsHost(t *testing.T) {
	cfg := Config{
		Storage: Storage{Backend: BackendLocal, LocalDir: t.TempDir()},
		Mail:    Mail{Sender: "a@example.com", Admin: "b@example.com"},
	}
	assert.Error(t, cfg.Validate())
}
