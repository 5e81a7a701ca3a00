package credential

import "errors"

var (
	ErrMissingFields       = errors.New("missing fields")
	ErrMissingTokenID      = errors.New("missing tokenId")
	ErrInvalidAddress      = errors.New("invalid ethereum address format")
	ErrInvalidTokenID      = errors.New("invalid tokenId")
	ErrInvalidPayload      = errors.New("payload must be valid JSON")
	ErrNotAuthorizedIssuer = errors.New("not authorized issuer")
	ErrChainDisabled       = errors.New("chain not configured")
)
