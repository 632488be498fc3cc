package mongostore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/solatis/policykeeper/internal/store/storetest"
)

// TestMongoStore runs against the server named by PK_TEST_MONGO_URI, using a
// throwaway database that is dropped afterwards.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("PK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PK_TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, uri)
	require.NoError(t, err)
	s.coll = s.client.Database("pk_test_" + uuid.NewString()[:8]).Collection(collectionName)
	require.NoError(t, s.ensureIndexes(ctx))
	t.Cleanup(func() {
		_ = s.coll.Database().Drop(context.Background())
		_ = s.Close()
	})

	storetest.Run(t, s)
}

func TestOpen_InvalidURI(t *testing.T) {
	_, err := Open(context.Background(), "postgres://localhost/pk")
	require.Error(t, err)
}
