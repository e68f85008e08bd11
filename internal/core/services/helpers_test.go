package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/invoicedb/internal/adapters/driven/storage/sqlite"
)

// newTestHandle returns a handle on a fresh store in a temp dir.
func newTestHandle(t *testing.T) *sqlite.Handle {
	t.Helper()
	h := sqlite.NewHandle(sqlite.Options{
		Path:   filepath.Join(t.TempDir(), "databases", sqlite.DatabaseName),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { assert.NoError(t, h.Close()) })
	return h
}

func registerTestUser(t *testing.T, users *UserService, username string) {
	t.Helper()
	_, err := users.Register(context.Background(), username, "secret")
	require.NoError(t, err)
}
