// Package secretbox cifra perfiles con AES-256-GCM.
//
// El formato es el mismo que guarda el store: iv (12 bytes), tag (16 bytes)
// y ciphertext por separado, cada uno en hex.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSizeGCM      = 12 // AES-GCM nonce size recomendado (96 bits)
	tagSizeGCM        = 16
	requiredKeyLength = 32 // 32 bytes => AES-256
)

var (
	ErrInvalidKey     = errors.New("secretbox: key must be 64 hex characters (32 bytes)")
	ErrInvalidPayload = errors.New("secretbox: invalid sealed payload")
)

// Sealed es la salida de Seal.
type Sealed struct {
	IV         string `json:"iv"`
	Tag        string `json:"tag"`
	Ciphertext string `json:"ciphertext"`
}

// Box cifra y descifra con una clave fija.
type Box struct {
	aead cipher.AEAD
	rand io.Reader
}

// ParseKey decodifica AES_SECRET_HEX (con o sin 0x).
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*requiredKeyLength {
		return nil, ErrInvalidKey
	}
	k, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return k, nil
}

// New crea un Box. La clave debe tener 32 bytes.
func New(key []byte) (*Box, error) {
	if len(key) != requiredKeyLength {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead, rand: rand.Reader}, nil
}

// NewFromHex es ParseKey + New.
func NewFromHex(s string) (*Box, error) {
	k, err := ParseKey(s)
	if err != nil {
		return nil, err
	}
	return New(k)
}

// Seal cifra plain con un nonce aleatorio.
func (b *Box) Seal(plain []byte) (Sealed, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(b.rand, nonce); err != nil {
		return Sealed{}, fmt.Errorf("nonce random: %w", err)
	}
	out := b.aead.Seal(nil, nonce, plain, nil)
	ct, tag := out[:len(out)-tagSizeGCM], out[len(out)-tagSizeGCM:]
	return Sealed{
		IV:         hex.EncodeToString(nonce),
		Tag:        hex.EncodeToString(tag),
		Ciphertext: hex.EncodeToString(ct),
	}, nil
}

// Open descifra y verifica el tag.
func (b *Box) Open(s Sealed) ([]byte, error) {
	nonce, err := hex.DecodeString(s.IV)
	if err != nil || len(nonce) != nonceSizeGCM {
		return nil, fmt.Errorf("%w: iv", ErrInvalidPayload)
	}
	tag, err := hex.DecodeString(s.Tag)
	if err != nil || len(tag) != tagSizeGCM {
		return nil, fmt.Errorf("%w: tag", ErrInvalidPayload)
	}
	ct, err := hex.DecodeString(s.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext", ErrInvalidPayload)
	}
	pt, err := b.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return pt, nil
}
