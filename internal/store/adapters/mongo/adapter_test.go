package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodid/internal/store"
	"github.com/dropDatabas3/hellodid/internal/store/storetest"
)

// Requiere un mongod real: HELLODID_TEST_MONGO_URI=mongodb://localhost:27017
func TestMongoAdapter_Contract(t *testing.T) {
	uri := os.Getenv("HELLODID_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("HELLODID_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := store.OpenAdapter(ctx, store.AdapterConfig{
		Name:     "mongo",
		DSN:      uri,
		Database: "hellodid_test",
		Migrate:  true,
	})
	require.NoError(t, err)
	defer conn.Close()

	storetest.Run(t, conn)
}

func TestMongoAdapter_RequiresURI(t *testing.T) {
	_, err := store.OpenAdapter(context.Background(), store.AdapterConfig{Name: "mongo"})
	require.Error(t, err)
}
