// Package credential contiene los DTOs de emisión, verificación y revocación.
package credential

import (
	"bytes"
	"encoding/json"
)

type IssueRequest struct {
	To          string          `json:"to"`
	MetadataURI string          `json:"metadataURI"`
	Payload     json.RawMessage `json:"payload"`
}

type IssueResponse struct {
	OK             bool   `json:"ok"`
	TxHash         string `json:"txHash"`
	TokenID        string `json:"tokenId,omitempty"`
	CredentialHash string `json:"credentialHash"`
}

// TokenID acepta "12" o 12 en el JSON.
type TokenID string

func (t *TokenID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = TokenID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = TokenID(n.String())
	return nil
}

// TokenRequest sirve para verify y revoke.
type TokenRequest struct {
	TokenID TokenID `json:"tokenId"`
}

type VerifyResponse struct {
	Owner          string `json:"owner"`
	CredentialHash string `json:"credentialHash"`
	Revoked        bool   `json:"revoked"`
}

type RevokeResponse struct {
	OK     bool   `json:"ok"`
	TxHash string `json:"txHash"`
}
