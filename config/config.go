package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	BackendAzure  = "azure"
	BackendS3     = "s3"
	BackendGDrive = "gdrive"
	BackendFTP    = "ftp"
	BackendLocal  = "local"
)

// Config is built once at process start and handed to every constructor.
type Config struct {
	ListenAddr string
	LogLevel   string
	Storage    Storage
	Mail       Mail
	Telegram   Telegram
}

type Storage struct {
	Backend string
	// Container is the Azure container, S3 bucket, Drive folder, FTP
	// directory or local sub-directory that blobs are written into.
	Container string

	AzureConnectionString string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
	S3Region    string

	DriveCredentialsFile string
	DriveTokenDB         string
	DriveRedirectURL     string
	DriveAccount         string

	FTPAddr     string
	FTPUser     string
	FTPPassword string

	LocalDir string
}

type Mail struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Admin    string
	Timeout  time.Duration
}

// Enabled reports whether enough is configured to send a notification.
func (m Mail) Enabled() bool {
	return m.Sender != "" && m.Admin != ""
}

type Telegram struct {
	Token  string
	ChatID int64
}

func (t Telegram) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// Flags returns the cli flags that populate a Config. Every flag can also be
// set through its environment variable, which is where .env values end up.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "listen", Value: ":8080", EnvVars: []string{"LISTEN_ADDR"}},
		&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}},

		&cli.StringFlag{Name: "storage", Value: BackendAzure, EnvVars: []string{"STORAGE_BACKEND"}, Usage: "azure, s3, gdrive, ftp or local"},
		&cli.StringFlag{Name: "container", EnvVars: []string{"AZURE_BLOB_CONTAINER_NAME", "STORAGE_CONTAINER"}},
		&cli.StringFlag{Name: "azure-connection-string", EnvVars: []string{"AZURE_BLOB_CONNECTION_STRING"}},

		&cli.StringFlag{Name: "s3-endpoint", EnvVars: []string{"S3_ENDPOINT"}},
		&cli.StringFlag{Name: "s3-access-key", EnvVars: []string{"S3_ACCESS_KEY"}},
		&cli.StringFlag{Name: "s3-secret-key", EnvVars: []string{"S3_SECRET_KEY"}},
		&cli.BoolFlag{Name: "s3-ssl", Value: true, EnvVars: []string{"S3_USE_SSL"}},
		&cli.StringFlag{Name: "s3-region", EnvVars: []string{"S3_REGION"}},

		&cli.StringFlag{Name: "gdrive-credentials", Value: "creds.json", EnvVars: []string{"GDRIVE_CREDENTIALS_FILE"}},
		&cli.StringFlag{Name: "gdrive-token-db", Value: "./tokens.db", EnvVars: []string{"GDRIVE_TOKEN_DB"}},
		&cli.StringFlag{Name: "gdrive-redirect-url", Value: "http://localhost:8080/callback", EnvVars: []string{"GDRIVE_REDIRECT_URL"}},
		&cli.StringFlag{Name: "gdrive-account", EnvVars: []string{"GDRIVE_ACCOUNT"}},

		&cli.StringFlag{Name: "ftp-addr", EnvVars: []string{"FTP_ADDR"}},
		&cli.StringFlag{Name: "ftp-user", EnvVars: []string{"FTP_USER"}},
		&cli.StringFlag{Name: "ftp-password", EnvVars: []string{"FTP_PASSWORD"}},

		&cli.StringFlag{Name: "local-dir", Value: "./uploads", EnvVars: []string{"LOCAL_DIR"}},

		&cli.StringFlag{Name: "smtp-host", Value: "smtp.gmail.com", EnvVars: []string{"SMTP_SERVER"}},
		&cli.IntFlag{Name: "smtp-port", Value: 587, EnvVars: []string{"SMTP_PORT"}},
		&cli.StringFlag{Name: "sender-email", EnvVars: []string{"SENDER_EMAIL"}},
		&cli.StringFlag{Name: "sender-password", EnvVars: []string{"SENDER_PASSWORD"}},
		&cli.StringFlag{Name: "admin-email", EnvVars: []string{"RECEIVER_EMAIL", "ADMIN_EMAIL"}},
		&cli.DurationFlag{Name: "smtp-timeout", Value: 30 * time.Second, EnvVars: []string{"SMTP_TIMEOUT"}},

		&cli.StringFlag{Name: "telegram-token", EnvVars: []string{"TELEGRAM_BOT_TOKEN"}},
		&cli.Int64Flag{Name: "telegram-chat-id", EnvVars: []string{"TELEGRAM_CHAT_ID"}},
	}
}

// FromCLI reads a Config out of the parsed flags and validates it.
func FromCLI(c *cli.Context) (Config, error) {
	cfg := Config{
		ListenAddr: c.String("listen"),
		LogLevel:   c.String("log-level"),
		Storage: Storage{
			Backend:               strings.ToLower(strings.TrimSpace(c.String("storage"))),
			Container:             c.String("container"),
			AzureConnectionString: c.String("azure-connection-string"),
			S3Endpoint:            c.String("s3-endpoint"),
			S3AccessKey:           c.String("s3-access-key"),
			S3SecretKey:           c.String("s3-secret-key"),
			S3UseSSL:              c.Bool("s3-ssl"),
			S3Region:              c.String("s3-region"),
			DriveCredentialsFile:  c.String("gdrive-credentials"),
			DriveTokenDB:          c.String("gdrive-token-db"),
			DriveRedirectURL:      c.String("gdrive-redirect-url"),
			DriveAccount:          c.String("gdrive-account"),
			FTPAddr:               c.String("ftp-addr"),
			FTPUser:               c.String("ftp-user"),
			FTPPassword:           c.String("ftp-password"),
			LocalDir:              c.String("local-dir"),
		},
		Mail: Mail{
			Host:     c.String("smtp-host"),
			Port:     c.Int("smtp-port"),
			Sender:   c.String("sender-email"),
			Password: c.String("sender-password"),
			Admin:    c.String("admin-email"),
			Timeout:  c.Duration("smtp-timeout"),
		},
		Telegram: Telegram{
			Token:  c.String("telegram-token"),
			ChatID: c.Int64("telegram-chat-id"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected storage backend has what it needs.
func (c Config) Validate() error {
	s := c.Storage
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	switch s.Backend {
	case BackendAzure:
		require("AZURE_BLOB_CONNECTION_STRING", s.AzureConnectionString)
		require("AZURE_BLOB_CONTAINER_NAME", s.Container)
	case BackendS3:
		require("S3_ENDPOINT", s.S3Endpoint)
		require("S3_ACCESS_KEY", s.S3AccessKey)
		require("S3_SECRET_KEY", s.S3SecretKey)
		require("STORAGE_CONTAINER", s.Container)
	case BackendGDrive:
		require("GDRIVE_CREDENTIALS_FILE", s.DriveCredentialsFile)
		require("GDRIVE_TOKEN_DB", s.DriveTokenDB)
		require("STORAGE_CONTAINER", s.Container)
	case BackendFTP:
		require("FTP_ADDR", s.FTPAddr)
	case BackendLocal:
		require("LOCAL_DIR", s.LocalDir)
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("storage backend %s is missing configuration: %s", s.Backend, strings.Join(missing, ", "))
	}

	if c.Mail.Enabled() && (c.Mail.Host == "" || c.Mail.Port <= 0) {
		return fmt.Errorf("smtp host and port are required when notifications are enabled")
	}
	return nil
}
