package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrReverted: la transacción se minó con status 0.
	ErrReverted = errors.New("transaction reverted")

	// ErrNotConfigured: falta la dirección del contrato en la configuración.
	ErrNotConfigured = errors.New("contract address not configured")

	// ErrRecipientIsContract: safeMint a un contrato sin ERC721Receiver revierte;
	// se rechaza antes de mandar la transacción.
	ErrRecipientIsContract = errors.New("recipient is a contract, use a wallet (EOA) address")

	// ErrInvalidPrivateKey: la clave del signer no es hex de 32 bytes.
	ErrInvalidPrivateKey = errors.New("invalid private key format, expected 64 hex characters")
)

// PendingError: la transacción se envió pero no se confirmó a tiempo (timeout
// de confirmación o contexto cancelado). Puede minarse igual más tarde.
type PendingError struct {
	Method string
	TxHash string
	Err    error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("chain: %s: wait %s: %v", e.Method, e.TxHash, e.Err)
}

func (e *PendingError) Unwrap() error { return e.Err }

// PendingTxHash devuelve el hash si err es un *PendingError.
func PendingTxHash(err error) (string, bool) {
	var pe *PendingError
	if errors.As(err, &pe) {
		return pe.TxHash, true
	}
	return "", false
}
