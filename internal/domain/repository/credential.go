package repository

import (
	"context"
	"time"
)

// Credential es el registro off-chain de una credencial emitida (token ERC-721).
type Credential struct {
	TokenID        string
	Holder         string
	CredentialHash string
	URI            string
	TxHash         string
	IssuedAt       time.Time
	RevokedAt      *time.Time
}

// CredentialRepository persiste credenciales emitidas.
type CredentialRepository interface {
	// Create retorna ErrConflict si el TokenID ya existe.
	Create(ctx context.Context, c Credential) error
	GetByTokenID(ctx context.Context, tokenID string) (*Credential, error)
	ListByHolder(ctx context.Context, holder string) ([]Credential, error)
	MarkRevoked(ctx context.Context, tokenID string, at time.Time) error
}
