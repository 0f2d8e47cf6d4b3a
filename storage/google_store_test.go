package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// driveServer keeps one folder and one file, enough for the calls StoreFile makes.
type driveServer struct {
	mu            sync.Mutex
	folderID      string
	fileID        string
	folderCreates int
	fileCreates   int
	fileUpdates   int
	uploads       []string
}

func (d *driveServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	d.mu.Lock()
	defer d.mu.Unlock()

	reply := func(v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	list := func(id string) {
		files := []map[string]string{}
		if id != "" {
			files = append(files, map[string]string{"id": id})
		}
		reply(map[string]any{"files": files})
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/files":
		if strings.Contains(r.URL.Query().Get("q"), folderMimeType) {
			list(d.folderID)
			return
		}
		list(d.fileID)
	case r.Method == http.MethodPost && r.URL.Path == "/files":
		d.folderCreates++
		d.folderID = "folder-1"
		reply(map[string]string{"id": d.folderID})
	case r.Method == http.MethodPost && r.URL.Path == "/upload/drive/v3/files":
		d.fileCreates++
		d.fileID = "file-1"
		d.uploads = append(d.uploads, string(body))
		reply(map[string]string{"id": d.fileID})
	case r.Method == http.MethodPatch && r.URL.Path == "/upload/drive/v3/files/"+d.fileID:
		d.fileUpdates++
		d.uploads = append(d.uploads, string(body))
		reply(map[string]string{"id": d.fileID})
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func newTestDriveStore(t *testing.T) (*GoogleDrive, *driveServer) {
	t.Helper()

	srv := &driveServer{}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	tokens, err := OpenTokenStore(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { tokens.Close() })
	require.NoError(t, tokens.Save("owner@example.com", &oauth2.Token{RefreshToken: "r1", TokenType: "Bearer"}))

	g := newTestDrive()
	g.tokens = tokens
	g.folder = "DataMakeover"
	g.serviceOptions = []option.ClientOption{
		option.WithEndpoint(ts.URL + "/"),
		option.WithHTTPClient(ts.Client()),
	}
	return g, srv
}

func TestDriveStoreFileUpdatesExisting(t *testing.T) {
	g, srv := newTestDriveStore(t)
	ctx := context.Background()

	location, err := g.StoreFile(ctx, strings.NewReader("first,payload\n1,2"), Blob{Name: "sales.csv", ContentType: "text/csv"})
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/file-1", location)

	location, err = g.StoreFile(ctx, strings.NewReader("second"), Blob{Name: "sales.csv", ContentType: "text/csv"})
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/file-1", location)

	assert.Equal(t, 1, srv.folderCreates)
	assert.Equal(t, 1, srv.fileCreates)
	assert.Equal(t, 1, srv.fileUpdates)
	require.Len(t, srv.uploads, 2)
	assert.Contains(t, srv.uploads[0], "first,payload")
	assert.Contains(t, srv.uploads[1], "second")
}

func TestDriveStoreFileNotAuthorized(t *testing.T) {
	tokens, err := OpenTokenStore(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	defer tokens.Close()

	g := newTestDrive()
	g.tokens = tokens

	_, err = g.StoreFile(context.Background(), strings.NewReader("x"), Blob{Name: "sales.csv"})
	assert.ErrorIs(t, err, ErrNoToken)
}
