package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	folderMimeType  = "application/vnd.google-apps.folder"
	stateCookieName = "oauth_state"
)

type DriveConfig struct {
	CredentialsFile string
	TokenDB         string
	RedirectURL     string
	// Account selects whose token is used for uploads. Empty means whoever
	// authorized last.
	Account string
	Folder  string
}

// GoogleDrive stores uploads in a Drive folder of an account that authorized
// the app through /auth.
type GoogleDrive struct {
	oauth   *oauth2.Config
	tokens  *TokenStore
	account string
	folder  string
	log     *slog.Logger
	// extra options for the Drive client, applied after the OAuth client
	serviceOptions []option.ClientOption
}

func NewGoogleDrive(ctx context.Context, cfg DriveConfig, log *slog.Logger) (*GoogleDrive, error) {
	// Load client secrets from a local file.
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	// If modifying these scopes, delete the previously saved tokens.
	oauthConfig, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	oauthConfig.RedirectURL = cfg.RedirectURL

	tokens, err := OpenTokenStore(cfg.TokenDB)
	if err != nil {
		return nil, err
	}

	return &GoogleDrive{
		oauth:   oauthConfig,
		tokens:  tokens,
		account: cfg.Account,
		folder:  cfg.Folder,
		log:     log,
	}, nil
}

// RegisterRoutes mounts the OAuth consent flow.
func (g *GoogleDrive) RegisterRoutes(e *echo.Echo) {
	e.GET("/auth", g.redirect)
	e.GET("/callback", g.callback)
}

func (g *GoogleDrive) redirect(c echo.Context) error {
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(10 * time.Minute),
	})
	// Google only returns a refresh token on the consent screen
	url := g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return c.Redirect(http.StatusFound, url)
}

func (g *GoogleDrive) callback(c echo.Context) error {
	cookie, err := c.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return c.String(http.StatusBadRequest, "Invalid OAuth state")
	}

	ctx := c.Request().Context()
	token, err := g.oauth.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		g.log.Warn("Unable to retrieve token from web", "error", err)
		return c.String(http.StatusInternalServerError, "Unable to retrieve token from web")
	}

	// get email address
	srv, err := drive.NewService(ctx, option.WithHTTPClient(g.oauth.Client(ctx, token)))
	if err != nil {
		g.log.Warn("Unable to create Drive service", "error", err)
		return c.String(http.StatusInternalServerError, "Unable to create Drive service")
	}

	about, err := srv.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		g.log.Warn("Unable to retrieve user info", "error", err)
		return c.String(http.StatusInternalServerError, "Unable to retrieve user info")
	}

	if err := g.tokens.Save(about.User.EmailAddress, token); err != nil {
		g.log.Warn("Unable to save token", "error", err)
		return c.String(http.StatusInternalServerError, "Unable to save token")
	}

	g.log.Info("Drive account authorized", "account", about.User.EmailAddress)
	return c.String(http.StatusOK, "Token saved successfully")
}

func (g *GoogleDrive) service(ctx context.Context) (*drive.Service, error) {
	token, err := g.tokens.Load(g.account)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return nil, fmt.Errorf("drive is not authorized yet, visit /auth: %w", err)
		}
		return nil, fmt.Errorf("unable to retrieve token: %w", err)
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(g.oauth.Client(ctx, token))}, g.serviceOptions...)
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}
	return srv, nil
}

// StoreFile uploads into the configured folder. A file with the same name in
// that folder gets its content replaced, matching the overwrite semantics of
// the other backends.
func (g *GoogleDrive) StoreFile(ctx context.Context, r io.Reader, b Blob) (string, error) {
	srv, err := g.service(ctx)
	if err != nil {
		return "", err
	}

	folderID, err := getFolderID(ctx, srv, g.folder)
	if err != nil {
		return "", err
	}

	q := fmt.Sprintf("name = %s and %s in parents and trashed = false", quoteQuery(b.Name), quoteQuery(folderID))
	existing, err := srv.Files.List().Q(q).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to list files: %w", err)
	}

	var f *drive.File
	if len(existing.Files) > 0 {
		f, err = srv.Files.Update(existing.Files[0].Id, &drive.File{}).Media(r).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to update file %s: %w", b.Name, err)
		}
	} else {
		file := &drive.File{
			Name:     b.Name,
			MimeType: b.ContentType,
			Parents:  []string{folderID},
		}
		f, err = srv.Files.Create(file).Media(r).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to create file %s: %w", b.Name, err)
		}
	}

	return "https://drive.google.com/file/d/" + f.Id, nil
}

func (g *GoogleDrive) Close() error {
	return g.tokens.Close()
}

// getFolderID retrieves the ID of a folder with the given name and creates it if it doesn't exist
func getFolderID(ctx context.Context, srv *drive.Service, name string) (string, error) {
	q := fmt.Sprintf("mimeType = '%s' and name = %s and trashed = false", folderMimeType, quoteQuery(name))
	r, err := srv.Files.List().Q(q).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to list files: %w", err)
	}

	if len(r.Files) == 0 {
		f := &drive.File{
			Name:     name,
			MimeType: folderMimeType,
		}
		f, err := srv.Files.Create(f).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to create folder: %w", err)
		}
		return f.Id, nil
	}

	return r.Files[0].Id, nil
}

// quoteQuery renders s as a string literal of the Drive search syntax.
func quoteQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
