// Package memory implementa un adapter en proceso para desarrollo y tests.
// Los datos se pierden al reiniciar.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(_ context.Context, _ store.AdapterConfig) (store.AdapterConnection, error) {
	return New(), nil
}

// Connection guarda todo en mapas protegidos por un único mutex.
type Connection struct {
	mu          sync.RWMutex
	now         func() time.Time
	consents    []*repository.Consent
	profiles    map[string]*repository.Profile
	credentials map[string]*repository.Credential
	audit       []repository.AuditEvent
}

// New crea una conexión vacía.
func New() *Connection {
	return &Connection{
		now:         func() time.Time { return time.Now().UTC() },
		profiles:    map[string]*repository.Profile{},
		credentials: map[string]*repository.Credential{},
	}
}

func (c *Connection) Name() string               { return "memory" }
func (c *Connection) Ping(context.Context) error { return nil }
func (c *Connection) Close() error               { return nil }
func (c *Connection) Consents() repository.ConsentRepository {
	return &consentRepo{c: c}
}
func (c *Connection) Profiles() repository.ProfileRepository       { return &profileRepo{c: c} }
func (c *Connection) Credentials() repository.CredentialRepository { return &credentialRepo{c: c} }
func (c *Connection) Audit() repository.AuditRepository            { return &auditRepo{c: c} }

// ─── Consents ───

type consentRepo struct{ c *Connection }

func (r *consentRepo) Create(_ context.Context, in repository.ConsentInput) (*repository.Consent, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	now := r.c.now()
	rec := &repository.Consent{
		ID:          store.NewID(),
		TxHash:      in.TxHash,
		Requester:   in.Requester,
		Subject:     in.Subject,
		PurposeHash: in.PurposeHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.c.consents = append(r.c.consents, rec)
	out := *rec
	return &out, nil
}

func (r *consentRepo) RecordIdentifier(_ context.Context, txHash, requestID string) (*repository.Consent, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	var target *repository.Consent
	for _, rec := range r.c.consents {
		if requestID != "" && rec.RequestID == requestID && !strings.EqualFold(rec.TxHash, txHash) {
			return nil, repository.ErrDuplicateRequest
		}
		if target == nil && strings.EqualFold(rec.TxHash, txHash) {
			target = rec
		}
	}
	if target == nil {
		return nil, repository.ErrNotFound
	}
	target.RequestID = requestID
	target.UpdatedAt = r.c.now()
	out := *target
	return &out, nil
}

func (r *consentRepo) MarkApproved(_ context.Context, requestID, signature, approveTxHash string) (*repository.Consent, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if requestID == "" {
		return nil, repository.ErrNotFound
	}
	for _, rec := range r.c.consents {
		if rec.RequestID != requestID {
			continue
		}
		sig := signature
		rec.Approved = true
		rec.Signature = &sig
		rec.ApproveTxHash = approveTxHash
		rec.UpdatedAt = r.c.now()
		out := *rec
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (r *consentRepo) FindByParticipant(_ context.Context, address string) ([]repository.Consent, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	var out []repository.Consent
	for i := len(r.c.consents) - 1; i >= 0; i-- {
		rec := r.c.consents[i]
		if rec.Requester == address || rec.Subject == address {
			out = append(out, *rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *consentRepo) ListUnresolved(_ context.Context, afterID string, limit int) ([]repository.Consent, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	var out []repository.Consent
	for _, rec := range r.c.consents {
		if rec.RequestID != "" || rec.ID <= afterID {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ─── Profiles ───

type profileRepo struct{ c *Connection }

func (r *profileRepo) Upsert(_ context.Context, address string, payload repository.EncryptedPayload, profileHash string) (*repository.Profile, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	now := r.c.now()
	p, ok := r.c.profiles[address]
	if !ok {
		p = &repository.Profile{Address: address, CreatedAt: now}
		r.c.profiles[address] = p
	}
	p.Payload = payload
	p.ProfileHash = profileHash
	p.UpdatedAt = now
	out := *p
	return &out, nil
}

func (r *profileRepo) Get(_ context.Context, address string) (*repository.Profile, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	p, ok := r.c.profiles[address]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

// ─── Credentials ───

type credentialRepo struct{ c *Connection }

func (r *credentialRepo) Create(_ context.Context, cred repository.Credential) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if _, exists := r.c.credentials[cred.TokenID]; exists {
		return repository.ErrConflict
	}
	if cred.IssuedAt.IsZero() {
		cred.IssuedAt = r.c.now()
	}
	r.c.credentials[cred.TokenID] = &cred
	return nil
}

func (r *credentialRepo) GetByTokenID(_ context.Context, tokenID string) (*repository.Credential, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	cred, ok := r.c.credentials[tokenID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *cred
	return &out, nil
}

func (r *credentialRepo) ListByHolder(_ context.Context, holder string) ([]repository.Credential, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	var out []repository.Credential
	for _, cred := range r.c.credentials {
		if cred.Holder == holder {
			out = append(out, *cred)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

func (r *credentialRepo) MarkRevoked(_ context.Context, tokenID string, at time.Time) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	cred, ok := r.c.credentials[tokenID]
	if !ok {
		return repository.ErrNotFound
	}
	at = at.UTC()
	cred.RevokedAt = &at
	return nil
}

// ─── Audit ───

type auditRepo struct{ c *Connection }

func (r *auditRepo) Append(_ context.Context, ev repository.AuditEvent) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.c.now()
	}
	r.c.audit = append(r.c.audit, ev)
	return nil
}

func (r *auditRepo) ListByActor(_ context.Context, actor string, limit int) ([]repository.AuditEvent, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	var out []repository.AuditEvent
	for i := len(r.c.audit) - 1; i >= 0; i-- {
		if r.c.audit[i].Actor != actor {
			continue
		}
		out = append(out, r.c.audit[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
