package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/store"
)

type consentRepo struct{ pool *pgxpool.Pool }

const consentColumns = `id, request_id, tx_hash, requester, subject, purpose_hash,
	approved, signature, approve_tx_hash, created_at, updated_at`

func scanConsent(row pgx.Row) (*repository.Consent, error) {
	var c repository.Consent
	if err := row.Scan(&c.ID, &c.RequestID, &c.TxHash, &c.Requester, &c.Subject, &c.PurposeHash,
		&c.Approved, &c.Signature, &c.ApproveTxHash, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func (r *consentRepo) Create(ctx context.Context, in repository.ConsentInput) (*repository.Consent, error) {
	const q = `
		INSERT INTO consent (id, tx_hash, requester, subject, purpose_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + consentColumns
	c, err := scanConsent(r.pool.QueryRow(ctx, q, store.NewID(), in.TxHash, in.Requester, in.Subject, in.PurposeHash))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateRequest
		}
		return nil, fmt.Errorf("pg: insert consent: %w", err)
	}
	return c, nil
}

func (r *consentRepo) RecordIdentifier(ctx context.Context, txHash, requestID string) (*repository.Consent, error) {
	const q = `
		UPDATE consent SET request_id = $2, updated_at = NOW()
		WHERE id = (SELECT id FROM consent WHERE tx_hash = $1 ORDER BY created_at LIMIT 1)
		RETURNING ` + consentColumns
	c, err := scanConsent(r.pool.QueryRow(ctx, q, txHash, requestID))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateRequest
		}
		return nil, fmt.Errorf("pg: record identifier: %w", err)
	}
	return c, nil
}

func (r *consentRepo) MarkApproved(ctx context.Context, requestID, signature, approveTxHash string) (*repository.Consent, error) {
	if requestID == "" {
		return nil, repository.ErrNotFound
	}
	const q = `
		UPDATE consent SET approved = TRUE, signature = $2, approve_tx_hash = $3, updated_at = NOW()
		WHERE request_id = $1
		RETURNING ` + consentColumns
	c, err := scanConsent(r.pool.QueryRow(ctx, q, requestID, signature, approveTxHash))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("pg: mark approved: %w", err)
	}
	return c, nil
}

func (r *consentRepo) FindByParticipant(ctx context.Context, address string) ([]repository.Consent, error) {
	const q = `SELECT ` + consentColumns + `
		FROM consent WHERE requester = $1 OR subject = $1
		ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, address)
}

func (r *consentRepo) ListUnresolved(ctx context.Context, afterID string, limit int) ([]repository.Consent, error) {
	// uuid se compara byte a byte: con v7 equivale al orden de creación
	const base = `SELECT ` + consentColumns + ` FROM consent
		WHERE request_id = '' AND ($1::text = '' OR id > NULLIF($1::text, '')::uuid)
		ORDER BY id`
	if limit <= 0 {
		return r.list(ctx, base, afterID)
	}
	return r.list(ctx, base+` LIMIT $2`, afterID, limit)
}

func (r *consentRepo) list(ctx context.Context, q string, args ...any) ([]repository.Consent, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: query consents: %w", err)
	}
	defer rows.Close()

	var out []repository.Consent
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, fmt.Errorf("pg: scan consent: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
