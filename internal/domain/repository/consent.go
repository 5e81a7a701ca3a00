package repository

import (
	"context"
	"time"
)

// Consent es el espejo off-chain de una solicitud de acceso registrada on-chain.
//
// RequestID queda vacío hasta que se conoce el identificador emitido por el
// contrato; TxHash es la clave de correlación que permite completarlo después.
type Consent struct {
	ID            string
	RequestID     string
	TxHash        string
	Requester     string
	Subject       string
	PurposeHash   string
	Approved      bool
	Signature     *string
	ApproveTxHash string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Resolved indica si el registro ya tiene el requestId on-chain.
func (c Consent) Resolved() bool { return c.RequestID != "" }

// ConsentInput son los datos para crear un registro nuevo.
type ConsentInput struct {
	TxHash      string
	Requester   string
	Subject     string
	PurposeHash string
}

// ConsentRepository define el cache off-chain de solicitudes de consentimiento.
// Nunca borra registros: son el rastro de auditoría.
type ConsentRepository interface {
	// Create inserta un registro con Approved=false y RequestID vacío.
	Create(ctx context.Context, in ConsentInput) (*Consent, error)

	// RecordIdentifier completa el RequestID del registro cuyo TxHash coincide.
	// Retorna ErrNotFound si no hay registro con ese TxHash y ErrDuplicateRequest
	// si otro registro ya tiene ese RequestID.
	RecordIdentifier(ctx context.Context, txHash, requestID string) (*Consent, error)

	// MarkApproved marca el registro como aprobado y guarda la firma del subject.
	// Retorna ErrNotFound si ningún registro tiene ese RequestID.
	MarkApproved(ctx context.Context, requestID, signature, approveTxHash string) (*Consent, error)

	// FindByParticipant lista los registros donde address es requester o subject,
	// más recientes primero.
	FindByParticipant(ctx context.Context, address string) ([]Consent, error)

	// ListUnresolved lista registros que todavía no tienen RequestID con ID mayor
	// a afterID ("" = desde el principio), en orden de ID (= orden de creación).
	ListUnresolved(ctx context.Context, afterID string, limit int) ([]Consent, error)
}
