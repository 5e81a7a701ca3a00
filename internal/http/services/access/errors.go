package access

import (
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellodid/internal/chain"
)

// Kind clasifica los fallos del protocolo para que el caller decida qué hacer
// con cada uno sin inspeccionar mensajes.
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingFields
	KindInvalidAddress
	KindInvalidFormat
	KindChainCallFailed
	KindStorageFailure
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindMissingFields:
		return "missing_fields"
	case KindInvalidAddress:
		return "invalid_address"
	case KindInvalidFormat:
		return "invalid_format"
	case KindChainCallFailed:
		return "chain_call_failed"
	case KindStorageFailure:
		return "storage_failure"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error es el error tipado que devuelven las operaciones del orquestador.
// TxHash se completa cuando el fallo ocurrió después de enviar la transacción:
// confirmada (StorageFailure) o enviada sin confirmar (ChainCallFailed).
type Error struct {
	Kind   Kind
	Op     string
	Field  string
	TxHash string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingFields:
		return "Missing fields"
	case KindInvalidAddress:
		return "Invalid Ethereum address format"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reporta si err (o alguno que envuelva) es un *Error de ese kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// KindOf devuelve el kind de err, KindUnknown si no es un *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func missingFields(op string, fields ...string) *Error {
	e := &Error{Kind: KindMissingFields, Op: op}
	if len(fields) > 0 {
		e.Field = fields[0]
	}
	return e
}

func invalidAddress(op, field string, err error) *Error {
	return &Error{Kind: KindInvalidAddress, Op: op, Field: field, Err: err}
}

func invalidFormat(op, field string, err error) *Error {
	return &Error{Kind: KindInvalidFormat, Op: op, Field: field, Err: fmt.Errorf("invalid %s: %w", field, err)}
}

func chainFailed(op string, err error) *Error {
	txHash, _ := chain.PendingTxHash(err)
	return &Error{Kind: KindChainCallFailed, Op: op, TxHash: txHash, Err: err}
}

func storageFailed(op, txHash string, err error) *Error {
	return &Error{Kind: KindStorageFailure, Op: op, TxHash: txHash, Err: err}
}
