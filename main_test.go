package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"3nt3/datamakeover/config"
)

func TestNewLogger(t *testing.T) {
	log, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestBuildNotifiers(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	notifiers, err := buildNotifiers(config.Config{}, log)
	require.NoError(t, err)
	assert.Empty(t, notifiers)

	notifiers, err = buildNotifiers(config.Config{
		Mail: config.Mail{Host: "smtp.gmail.com", Port: 587, Sender: "bot@example.com", Admin: "admin@example.com"},
	}, log)
	require.NoError(t, err)
	require.Len(t, notifiers, 1)
	assert.Equal(t, "email", notifiers[0].Name())
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// keep notifications off regardless of the developer's environment
	for _, env := range []string{"SENDER_EMAIL", "RECEIVER_EMAIL", "ADMIN_EMAIL", "TELEGRAM_BOT_TOKEN"} {
		t.Setenv(env, "")
	}

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"datamakeover"}, args...))
	return out.String(), err
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "exports", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSubmitCommand(t *testing.T) {
	input := writeInput(t, "sales.csv", "a,b\n1,2")
	uploads := t.TempDir()

	out, err := runApp(t,
		"--storage", "local", "--local-dir", uploads, "--container", "",
		"submit", "--file", input, "--email", "user@x.com", "--description", "group by a",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "File 'sales.csv' uploaded successfully.")
	assert.Contains(t, out, filepath.Join(uploads, "sales.csv"))

	data, err := os.ReadFile(filepath.Join(uploads, "sales.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2", string(data))
}

func TestSubmitCommandMissingEmail(t *testing.T) {
	input := writeInput(t, "sales.csv", "a,b\n1,2")
	uploads := t.TempDir()

	_, err := runApp(t,
		"--storage", "local", "--local-dir", uploads, "--container", "",
		"submit", "--file", input, "--description", "group by a",
	)
	require.Error(t, err)

	var exit cli.ExitCoder
	require.True(t, errors.As(err, &exit))
	assert.Equal(t, 2, exit.ExitCode())
	assert.Equal(t, "missing email", err.Error())

	_, err = os.Stat(filepath.Join(uploads, "sales.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestSubmitCommandMissingInput(t *testing.T) {
	_, err := runApp(t,
		"--storage", "local", "--local-dir", t.TempDir(),
		"submit", "--file", filepath.Join(t.TempDir(), "nope.csv"), "--email", "user@x.com", "--description", "sum",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
