// Package access contiene los DTOs del flujo de solicitud y consentimiento.
package access

import (
	"encoding/json"
	"time"
)

// RequestAccessRequest es el body de POST /requestAccess.
type RequestAccessRequest struct {
	Requester string          `json:"requester"`
	Subject   string          `json:"subject"`
	Purpose   json.RawMessage `json:"purpose"`
}

// RequestAccessResponse: requestId solo aparece si el receipt lo trajo.
type RequestAccessResponse struct {
	OK          bool   `json:"ok"`
	TxHash      string `json:"txHash"`
	PurposeHash string `json:"purposeHash"`
	RequestID   string `json:"requestId,omitempty"`
}

// ConsentRequest es el body de POST /consent.
type ConsentRequest struct {
	RequestID     string `json:"requestId"`
	Subject       string `json:"subject"`
	Signature     string `json:"signature"`
	OptionalProof string `json:"optionalProof,omitempty"`
}

// ConsentResponse es la respuesta de POST /consent.
type ConsentResponse struct {
	OK     bool   `json:"ok"`
	TxHash string `json:"txHash"`
}

// ConsentItem es un registro del cache off-chain tal como lo ve el cliente.
type ConsentItem struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId"`
	TxHash      string    `json:"txHash"`
	Requester   string    `json:"requester"`
	Subject     string    `json:"subject"`
	PurposeHash string    `json:"purposeHash"`
	Approved    bool      `json:"approved"`
	Signature   *string   `json:"signature"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ConsentListResponse es la respuesta de GET /consents/{address}.
type ConsentListResponse struct {
	Success  bool          `json:"success"`
	Address  string        `json:"address"`
	Consents []ConsentItem `json:"consents"`
}
