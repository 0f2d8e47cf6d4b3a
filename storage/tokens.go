package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no account has completed the OAuth flow yet.
var ErrNoToken = errors.New("no oauth token stored")

// TokenStore keeps OAuth refresh tokens in a SQLite table, keyed by the
// account's email address.
type TokenStore struct {
	db *sql.DB
}

func OpenTokenStore(path string) (*TokenStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS oauth_tokens (
		"user_id" TEXT PRIMARY KEY,
		"refresh_token" TEXT NOT NULL,
		"token_type" TEXT NOT NULL,
		"updated_at" INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating table: %w", err)
	}
	return &TokenStore{db: db}, nil
}

// Save upserts the token of userID. An empty refresh token keeps the stored one.
func (s *TokenStore) Save(userID string, token *oauth2.Token) error {
	insertSQL := `INSERT INTO oauth_tokens (user_id, refresh_token, token_type, updated_at)
	              VALUES (?, ?, ?, ?)
	              ON CONFLICT(user_id) DO UPDATE SET
	              refresh_token=COALESCE(NULLIF(excluded.refresh_token, ''), oauth_tokens.refresh_token),
	              token_type=excluded.token_type,
	              updated_at=excluded.updated_at`

	_, err := s.db.Exec(insertSQL, userID, token.RefreshToken, token.TokenType, time.Now().UnixNano())
	return err
}

// Load returns the token of userID, or of the most recently authorized
// account when userID is empty.
func (s *TokenStore) Load(userID string) (*oauth2.Token, error) {
	var row *sql.Row
	if userID == "" {
		row = s.db.QueryRow(`SELECT refresh_token, token_type FROM oauth_tokens ORDER BY updated_at DESC LIMIT 1`)
	} else {
		row = s.db.QueryRow(`SELECT refresh_token, token_type FROM oauth_tokens WHERE user_id = ?`, userID)
	}

	var refreshToken, tokenType string
	if err := row.Scan(&refreshToken, &tokenType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoToken
		}
		return nil, err
	}

	return &oauth2.Token{
		RefreshToken: refreshToken,
		TokenType:    tokenType,
	}, nil
}

func (s *TokenStore) Close() error {
	return s.db.Close()
}
