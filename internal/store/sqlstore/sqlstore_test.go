package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solatis/policykeeper/internal/core/db"
	"github.com/solatis/policykeeper/internal/store/storetest"
)

func openStore(t *testing.T, url string) *Store {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, url)
	require.NoError(t, err)
	require.NoError(t, db.MigrateUp(ctx, conn, nil))

	s, err := New(conn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	s := openStore(t, "sqlite://"+filepath.Join(t.TempDir(), "policies.db"))
	storetest.Run(t, s)
}

// TestPostgresStore runs against a disposable database named by
// PK_TEST_POSTGRES_URL.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("PK_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("PK_TEST_POSTGRES_URL not set")
	}
	s := openStore(t, url)
	_, err := s.conn.Exec("DELETE FROM policies")
	require.NoError(t, err)
	storetest.Run(t, s)
}
