// Package storetest contiene la suite de contrato que todo adapter de store
// debe pasar. La usan los tests de memory, mongo y postgres.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/store"
)

// Run ejecuta la suite completa contra conn. Cada subtest usa direcciones
// y hashes únicos, así que la base puede tener datos previos.
func Run(t *testing.T, conn store.AdapterConnection) {
	t.Helper()
	require.NoError(t, conn.Ping(context.Background()))

	t.Run("consents", func(t *testing.T) { runConsents(t, conn.Consents()) })
	t.Run("profiles", func(t *testing.T) { runProfiles(t, conn.Profiles()) })
	t.Run("credentials", func(t *testing.T) { runCredentials(t, conn.Credentials()) })
	t.Run("audit", func(t *testing.T) { runAudit(t, conn.Audit()) })
}

// RandomAddress genera una dirección válida distinta en cada llamada.
func RandomAddress() string {
	u := uuid.New()
	return fmt.Sprintf("0x%x%08x", u[:], uint32(time.Now().UnixNano()))
}

// RandomHash genera un bytes32 hex distinto en cada llamada.
func RandomHash() string {
	a, b := uuid.New(), uuid.New()
	return fmt.Sprintf("0x%x%x", a[:], b[:])
}

func runConsents(t *testing.T, repo repository.ConsentRepository) {
	ctx := context.Background()
	requester, subject := RandomAddress(), RandomAddress()
	purpose := RandomHash()

	t.Run("create starts unapproved and unresolved", func(t *testing.T) {
		tx := RandomHash()
		rec, err := repo.Create(ctx, repository.ConsentInput{TxHash: tx, Requester: requester, Subject: subject, PurposeHash: purpose})
		require.NoError(t, err)
		require.NotEmpty(t, rec.ID)
		require.False(t, rec.Approved)
		require.Nil(t, rec.Signature)
		require.Empty(t, rec.RequestID)
		require.False(t, rec.Resolved())
		require.Equal(t, tx, rec.TxHash)
	})

	t.Run("identical inputs create distinct records", func(t *testing.T) {
		in := repository.ConsentInput{TxHash: RandomHash(), Requester: requester, Subject: subject, PurposeHash: purpose}
		a, err := repo.Create(ctx, in)
		require.NoError(t, err)
		in.TxHash = RandomHash()
		b, err := repo.Create(ctx, in)
		require.NoError(t, err)
		require.NotEqual(t, a.ID, b.ID)
	})

	t.Run("record identifier then approve", func(t *testing.T) {
		tx, reqID := RandomHash(), RandomHash()
		_, err := repo.Create(ctx, repository.ConsentInput{TxHash: tx, Requester: requester, Subject: subject, PurposeHash: purpose})
		require.NoError(t, err)

		rec, err := repo.RecordIdentifier(ctx, tx, reqID)
		require.NoError(t, err)
		require.Equal(t, reqID, rec.RequestID)
		require.True(t, rec.Resolved())

		// re-registrar el mismo par es idempotente
		_, err = repo.RecordIdentifier(ctx, tx, reqID)
		require.NoError(t, err)

		approved, err := repo.MarkApproved(ctx, reqID, "0xdeadbeef", RandomHash())
		require.NoError(t, err)
		require.True(t, approved.Approved)
		require.NotNil(t, approved.Signature)
		require.Equal(t, "0xdeadbeef", *approved.Signature)
	})

	t.Run("record identifier unknown tx", func(t *testing.T) {
		_, err := repo.RecordIdentifier(ctx, RandomHash(), RandomHash())
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("record identifier duplicate request id", func(t *testing.T) {
		tx1, tx2, reqID := RandomHash(), RandomHash(), RandomHash()
		for _, tx := range []string{tx1, tx2} {
			_, err := repo.Create(ctx, repository.ConsentInput{TxHash: tx, Requester: requester, Subject: subject, PurposeHash: purpose})
			require.NoError(t, err)
		}
		_, err := repo.RecordIdentifier(ctx, tx1, reqID)
		require.NoError(t, err)
		_, err = repo.RecordIdentifier(ctx, tx2, reqID)
		require.ErrorIs(t, err, repository.ErrDuplicateRequest)
		require.True(t, repository.IsConflict(err))
	})

	t.Run("mark approved unknown request", func(t *testing.T) {
		_, err := repo.MarkApproved(ctx, RandomHash(), "0x01", "")
		require.ErrorIs(t, err, repository.ErrNotFound)
		_, err = repo.MarkApproved(ctx, "", "0x01", "")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("find by participant newest first", func(t *testing.T) {
		a, b, c := RandomAddress(), RandomAddress(), RandomAddress()
		first, err := repo.Create(ctx, repository.ConsentInput{TxHash: RandomHash(), Requester: a, Subject: b, PurposeHash: purpose})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		second, err := repo.Create(ctx, repository.ConsentInput{TxHash: RandomHash(), Requester: c, Subject: a, PurposeHash: purpose})
		require.NoError(t, err)

		got, err := repo.FindByParticipant(ctx, a)
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, second.ID, got[0].ID)
		require.Equal(t, first.ID, got[1].ID)

		got, err = repo.FindByParticipant(ctx, b)
		require.NoError(t, err)
		require.Len(t, got, 1)

		got, err = repo.FindByParticipant(ctx, RandomAddress())
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("find by participant same instant keeps creation order", func(t *testing.T) {
		a := RandomAddress()
		var ids []string
		for i := 0; i < 5; i++ {
			rec, err := repo.Create(ctx, repository.ConsentInput{TxHash: RandomHash(), Requester: a, Subject: RandomAddress(), PurposeHash: purpose})
			require.NoError(t, err)
			ids = append(ids, rec.ID)
		}

		got, err := repo.FindByParticipant(ctx, a)
		require.NoError(t, err)
		require.Len(t, got, 5)
		for i, c := range got {
			require.Equal(t, ids[len(ids)-1-i], c.ID, "position %d", i)
		}
	})

	t.Run("list unresolved", func(t *testing.T) {
		tx := RandomHash()
		rec, err := repo.Create(ctx, repository.ConsentInput{TxHash: tx, Requester: requester, Subject: subject, PurposeHash: purpose})
		require.NoError(t, err)

		pending, err := repo.ListUnresolved(ctx, "", 0)
		require.NoError(t, err)
		require.True(t, containsID(pending, rec.ID))

		_, err = repo.RecordIdentifier(ctx, tx, RandomHash())
		require.NoError(t, err)
		pending, err = repo.ListUnresolved(ctx, "", 0)
		require.NoError(t, err)
		require.False(t, containsID(pending, rec.ID))

		limited, err := repo.ListUnresolved(ctx, "", 1)
		require.NoError(t, err)
		require.LessOrEqual(t, len(limited), 1)
	})

	t.Run("list unresolved after cursor", func(t *testing.T) {
		var recs []*repository.Consent
		for i := 0; i < 3; i++ {
			rec, err := repo.Create(ctx, repository.ConsentInput{TxHash: RandomHash(), Requester: requester, Subject: subject, PurposeHash: purpose})
			require.NoError(t, err)
			recs = append(recs, rec)
		}

		page, err := repo.ListUnresolved(ctx, recs[0].ID, 0)
		require.NoError(t, err)
		require.False(t, containsID(page, recs[0].ID))
		i1, i2 := indexOfID(page, recs[1].ID), indexOfID(page, recs[2].ID)
		require.GreaterOrEqual(t, i1, 0)
		require.Greater(t, i2, i1)

		page, err = repo.ListUnresolved(ctx, recs[2].ID, 0)
		require.NoError(t, err)
		for _, id := range []string{recs[0].ID, recs[1].ID, recs[2].ID} {
			require.False(t, containsID(page, id))
		}
	})
}

func containsID(list []repository.Consent, id string) bool {
	return indexOfID(list, id) >= 0
}

func indexOfID(list []repository.Consent, id string) int {
	for i, c := range list {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func runProfiles(t *testing.T, repo repository.ProfileRepository) {
	ctx := context.Background()
	addr := RandomAddress()

	_, err := repo.Get(ctx, addr)
	require.ErrorIs(t, err, repository.ErrNotFound)

	p1, err := repo.Upsert(ctx, addr, repository.EncryptedPayload{IV: "aa", Tag: "bb", Ciphertext: "cc"}, "0x01")
	require.NoError(t, err)
	require.Equal(t, addr, p1.Address)

	_, err = repo.Upsert(ctx, addr, repository.EncryptedPayload{IV: "dd", Tag: "ee", Ciphertext: "ff"}, "0x02")
	require.NoError(t, err)

	got, err := repo.Get(ctx, addr)
	require.NoError(t, err)
	require.Equal(t, "dd", got.Payload.IV)
	require.Equal(t, "ff", got.Payload.Ciphertext)
	require.Equal(t, "0x02", got.ProfileHash)
}

func runCredentials(t *testing.T, repo repository.CredentialRepository) {
	ctx := context.Background()
	holder := RandomAddress()
	tokenID := fmt.Sprintf("%d", time.Now().UnixNano())

	cred := repository.Credential{TokenID: tokenID, Holder: holder, CredentialHash: RandomHash(), URI: "ipfs://x", TxHash: RandomHash()}
	require.NoError(t, repo.Create(ctx, cred))
	require.ErrorIs(t, repo.Create(ctx, cred), repository.ErrConflict)

	got, err := repo.GetByTokenID(ctx, tokenID)
	require.NoError(t, err)
	require.Equal(t, holder, got.Holder)
	require.Nil(t, got.RevokedAt)

	list, err := repo.ListByHolder(ctx, holder)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, repo.MarkRevoked(ctx, tokenID, time.Now()))
	got, err = repo.GetByTokenID(ctx, tokenID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)

	require.ErrorIs(t, repo.MarkRevoked(ctx, "missing-"+tokenID, time.Now()), repository.ErrNotFound)
	_, err = repo.GetByTokenID(ctx, "missing-"+tokenID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func runAudit(t *testing.T, repo repository.AuditRepository) {
	ctx := context.Background()
	actor := RandomAddress()

	require.NoError(t, repo.Append(ctx, repository.AuditEvent{Type: "ACCESS_REQUEST", Actor: actor, TxHash: RandomHash()}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.Append(ctx, repository.AuditEvent{Type: "ACCESS_APPROVE", Actor: actor, Details: map[string]any{"drift": true}}))

	got, err := repo.ListByActor(ctx, actor, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "ACCESS_APPROVE", got[0].Type)
	require.Equal(t, true, got[0].Details["drift"])

	got, err = repo.ListByActor(ctx, actor, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
