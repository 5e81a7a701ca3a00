package repository

import (
	"context"
	"time"
)

// AuditEvent es una entrada del log de auditoría off-chain.
type AuditEvent struct {
	ID        string
	Type      string // REGISTER, ISSUE, REVOKE, ACCESS_REQUEST, ACCESS_APPROVE, VERIFY, CACHE_DRIFT
	Actor     string
	Subject   string
	RequestID string
	TokenID   string
	TxHash    string
	Details   map[string]any
	CreatedAt time.Time
}

// AuditRepository es append-only.
type AuditRepository interface {
	Append(ctx context.Context, ev AuditEvent) error
	ListByActor(ctx context.Context, actor string, limit int) ([]AuditEvent, error)
}
