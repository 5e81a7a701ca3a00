package identity

import "errors"

var (
	ErrMissingFields   = errors.New("missing address/profile")
	ErrMissingAddress  = errors.New("missing address")
	ErrInvalidAddress  = errors.New("invalid ethereum address format")
	ErrInvalidProfile  = errors.New("profile must be valid JSON")
	ErrChainDisabled   = errors.New("chain not configured")
	ErrCryptoDisabled  = errors.New("profile encryption key not configured")
	ErrProfileNotFound = errors.New("profile not found")
)
