package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/store/adapters/memory"
)

type failingRepo struct{}

func (failingRepo) Append(context.Context, repository.AuditEvent) error { return errors.New("down") }
func (failingRepo) ListByActor(context.Context, string, int) ([]repository.AuditEvent, error) {
	return nil, nil
}

func TestRecorder_Persists(t *testing.T) {
	conn := memory.New()
	rec := New(conn.Audit())

	rec.Record(context.Background(), repository.AuditEvent{Type: EventAccessRequest, Actor: "0xA", TxHash: "0x01"})

	got, err := conn.Audit().ListByActor(context.Background(), "0xA", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, EventAccessRequest, got[0].Type)
	require.False(t, got[0].CreatedAt.IsZero())
}

func TestRecorder_CanceledContextStillPersists(t *testing.T) {
	conn := memory.New()
	rec := New(conn.Audit())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, repository.AuditEvent{Type: EventCacheDrift, Actor: "0xB"})

	got, err := conn.Audit().ListByActor(context.Background(), "0xB", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestRecorder_BestEffort(t *testing.T) {
	require.NotPanics(t, func() {
		New(failingRepo{}).Record(context.Background(), repository.AuditEvent{Type: EventVerify})
		New(nil).Record(context.Background(), repository.AuditEvent{Type: EventVerify})
		var r *Recorder
		r.Record(context.Background(), repository.AuditEvent{Type: EventVerify})
	})
}
