package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
)

// ─── ProfileRepository ───

type profileRepo struct{ pool *pgxpool.Pool }

func (r *profileRepo) Upsert(ctx context.Context, address string, payload repository.EncryptedPayload, profileHash string) (*repository.Profile, error) {
	const q = `
		INSERT INTO profile (address, iv, tag, ciphertext, profile_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE SET
			iv = EXCLUDED.iv, tag = EXCLUDED.tag, ciphertext = EXCLUDED.ciphertext,
			profile_hash = EXCLUDED.profile_hash, updated_at = NOW()
		RETURNING address, iv, tag, ciphertext, profile_hash, created_at, updated_at`
	var p repository.Profile
	err := r.pool.QueryRow(ctx, q, address, payload.IV, payload.Tag, payload.Ciphertext, profileHash).
		Scan(&p.Address, &p.Payload.IV, &p.Payload.Tag, &p.Payload.Ciphertext, &p.ProfileHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("pg: upsert profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepo) Get(ctx context.Context, address string) (*repository.Profile, error) {
	const q = `SELECT address, iv, tag, ciphertext, profile_hash, created_at, updated_at FROM profile WHERE address = $1`
	var p repository.Profile
	err := r.pool.QueryRow(ctx, q, address).
		Scan(&p.Address, &p.Payload.IV, &p.Payload.Tag, &p.Payload.Ciphertext, &p.ProfileHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("pg: get profile: %w", err)
	}
	return &p, nil
}

// ─── CredentialRepository ───

type credentialRepo struct{ pool *pgxpool.Pool }

func (r *credentialRepo) Create(ctx context.Context, c repository.Credential) error {
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO credential (token_id, holder, credential_hash, uri, tx_hash, issued_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.pool.Exec(ctx, q, c.TokenID, c.Holder, c.CredentialHash, c.URI, c.TxHash, c.IssuedAt, c.RevokedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("pg: insert credential: %w", err)
	}
	return nil
}

const credentialColumns = `token_id, holder, credential_hash, uri, tx_hash, issued_at, revoked_at`

func (r *credentialRepo) GetByTokenID(ctx context.Context, tokenID string) (*repository.Credential, error) {
	var c repository.Credential
	err := r.pool.QueryRow(ctx, `SELECT `+credentialColumns+` FROM credential WHERE token_id = $1`, tokenID).
		Scan(&c.TokenID, &c.Holder, &c.CredentialHash, &c.URI, &c.TxHash, &c.IssuedAt, &c.RevokedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("pg: get credential: %w", err)
	}
	return &c, nil
}

func (r *credentialRepo) ListByHolder(ctx context.Context, holder string) ([]repository.Credential, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+credentialColumns+` FROM credential WHERE holder = $1 ORDER BY issued_at DESC`, holder)
	if err != nil {
		return nil, fmt.Errorf("pg: list credentials: %w", err)
	}
	defer rows.Close()

	var out []repository.Credential
	for rows.Next() {
		var c repository.Credential
		if err := rows.Scan(&c.TokenID, &c.Holder, &c.CredentialHash, &c.URI, &c.TxHash, &c.IssuedAt, &c.RevokedAt); err != nil {
			return nil, fmt.Errorf("pg: scan credential: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *credentialRepo) MarkRevoked(ctx context.Context, tokenID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE credential SET revoked_at = $2 WHERE token_id = $1`, tokenID, at.UTC())
	if err != nil {
		return fmt.Errorf("pg: revoke credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ─── AuditRepository ───

type auditRepo struct{ pool *pgxpool.Pool }

func (r *auditRepo) Append(ctx context.Context, ev repository.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	details := ev.Details
	if details == nil {
		details = map[string]any{}
	}
	const q = `
		INSERT INTO audit_event (id, type, actor, subject, request_id, token_id, tx_hash, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.pool.Exec(ctx, q, ev.ID, ev.Type, ev.Actor, ev.Subject, ev.RequestID, ev.TokenID, ev.TxHash, details, ev.CreatedAt); err != nil {
		return fmt.Errorf("pg: insert audit: %w", err)
	}
	return nil
}

func (r *auditRepo) ListByActor(ctx context.Context, actor string, limit int) ([]repository.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
		SELECT id, type, actor, subject, request_id, token_id, tx_hash, details, created_at
		FROM audit_event WHERE actor = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("pg: list audit: %w", err)
	}
	defer rows.Close()

	var out []repository.AuditEvent
	for rows.Next() {
		var ev repository.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.Actor, &ev.Subject, &ev.RequestID, &ev.TokenID, &ev.TxHash, &ev.Details, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("pg: scan audit: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
