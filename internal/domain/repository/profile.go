package repository

import (
	"context"
	"time"
)

// EncryptedPayload es el perfil cifrado con AES-256-GCM (campos en hex).
type EncryptedPayload struct {
	IV         string `json:"iv"`
	Tag        string `json:"tag"`
	Ciphertext string `json:"ciphertext"`
}

// Profile es el perfil cifrado de una dirección registrada.
type Profile struct {
	Address     string
	Payload     EncryptedPayload
	ProfileHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileRepository persiste perfiles cifrados, uno por dirección.
type ProfileRepository interface {
	Upsert(ctx context.Context, address string, payload EncryptedPayload, profileHash string) (*Profile, error)
	Get(ctx context.Context, address string) (*Profile, error)
}
