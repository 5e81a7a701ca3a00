// Package canonhash calcula digests deterministas de payloads JSON.
//
// El payload se serializa en forma canónica (claves de objetos ordenadas, sin
// espacios, sin escape HTML, números tal cual llegaron) y se hashea con SHA-256.
// El resultado se marca con prefijo 0x para poder usarse directamente como bytes32.
package canonhash

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrEmptyPayload se devuelve para payloads nulos.
var ErrEmptyPayload = errors.New("canonhash: empty payload")

// Canonical devuelve la forma canónica en bytes de v.
func Canonical(v any) ([]byte, error) {
	if v == nil {
		return nil, ErrEmptyPayload
	}
	raw, ok := v.(json.RawMessage)
	if !ok {
		b, err := encode(v)
		if err != nil {
			return nil, fmt.Errorf("canonhash: marshal: %w", err)
		}
		raw = b
	}

	// Round-trip por any: encoding/json ordena las claves de los maps.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonhash: invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("canonhash: invalid JSON: trailing data")
	}
	if generic == nil {
		return nil, ErrEmptyPayload
	}
	return encode(generic)
}

// Sum devuelve sha256(Canonical(v)).
func Sum(v any) (common.Hash, error) {
	b, err := Canonical(v)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(sha256.Sum256(b)), nil
}

// SumHex devuelve Sum(v) como "0x" + 64 hex.
func SumHex(v any) (string, error) {
	h, err := Sum(v)
	if err != nil {
		return "", err
	}
	return h.Hex(), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
