package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/store"
	"github.com/dropDatabas3/hellodid/internal/store/storetest"
)

func TestMemoryAdapter_Contract(t *testing.T) {
	conn, err := store.OpenAdapter(context.Background(), store.AdapterConfig{Name: "memory"})
	require.NoError(t, err)
	defer conn.Close()

	storetest.Run(t, conn)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	conn := New()
	rec, err := conn.Consents().Create(context.Background(), repositoryInput())
	require.NoError(t, err)

	rec.Approved = true
	got, err := conn.Consents().FindByParticipant(context.Background(), rec.Requester)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.False(t, got[0].Approved)
}

func repositoryInput() repository.ConsentInput {
	return repository.ConsentInput{
		TxHash:      storetest.RandomHash(),
		Requester:   storetest.RandomAddress(),
		Subject:     storetest.RandomAddress(),
		PurposeHash: storetest.RandomHash(),
	}
}
