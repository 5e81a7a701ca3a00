// Package identity contiene los DTOs de registro de DID y consultas de identidad.
package identity

import "encoding/json"

type RegisterRequest struct {
	Address string          `json:"address"`
	Profile json.RawMessage `json:"profile"`
}

// RegisterResponse: txHash es null si la llamada on-chain falló.
type RegisterResponse struct {
	OK          bool    `json:"ok"`
	TxHash      *string `json:"txHash"`
	ProfileHash string  `json:"profileHash"`
}

type RegisteredResponse struct {
	Success      bool `json:"success"`
	IsRegistered bool `json:"isRegistered"`
}

type SignerResponse struct {
	Success bool   `json:"success"`
	Address string `json:"address"`
	Balance string `json:"balance"`
}
