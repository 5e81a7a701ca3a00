// Package validation valida y canonicaliza los valores que llegan del cliente
// antes de tocar la cadena o el store.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrInvalidAddressFormat: la entrada no es una dirección hex de 20 bytes.
	ErrInvalidAddressFormat = errors.New("invalid ethereum address format")

	// ErrInvalidRequestID: la entrada no es un bytes32 en hex con prefijo 0x.
	ErrInvalidRequestID = errors.New("invalid request id format")

	// ErrInvalidHex: la entrada no es hex válido con prefijo 0x.
	ErrInvalidHex = errors.New("invalid hex bytes")
)

// Address rules:
//   - 40 dígitos hex, prefijo 0x opcional.
//   - El casing se ignora: un checksum EIP-55 incorrecto NO es error, se recalcula.
//     Los clientes suelen mandar direcciones en minúsculas o mal capitalizadas.
var (
	hexAddressRe = regexp.MustCompile(`^(0[xX])?[0-9a-fA-F]{40}$`)
	bytes32Re    = regexp.MustCompile(`^0[xX][0-9a-fA-F]{64}$`)
)

// NormalizeAddress valida la dirección y la devuelve tipada.
func NormalizeAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !hexAddressRe.MatchString(s) {
		return common.Address{}, ErrInvalidAddressFormat
	}
	return common.HexToAddress(s), nil
}

// ChecksumAddress devuelve la forma checksum (EIP-55) de s.
// Es idempotente: ChecksumAddress(ChecksumAddress(x)) == ChecksumAddress(x).
func ChecksumAddress(s string) (string, error) {
	addr, err := NormalizeAddress(s)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

// ValidRequestID reporta si s es un identificador bytes32 bien formado.
func ValidRequestID(s string) bool {
	return bytes32Re.MatchString(strings.TrimSpace(s))
}

// ParseRequestID parsea un identificador bytes32. La forma canónica es hex en minúsculas.
func ParseRequestID(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if !bytes32Re.MatchString(s) {
		return common.Hash{}, ErrInvalidRequestID
	}
	return common.HexToHash(s), nil
}

// CanonicalRequestID devuelve la forma canónica (0x + 64 hex en minúsculas).
func CanonicalRequestID(s string) (string, error) {
	h, err := ParseRequestID(s)
	if err != nil {
		return "", err
	}
	return h.Hex(), nil
}

// ParseHexBytes decodifica un valor 0x-hex (firma, prueba).
// Cadena vacía o "0x" devuelven un slice vacío.
func ParseHexBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0x" || s == "0X" {
		return []byte{}, nil
	}
	if strings.HasPrefix(s, "0X") {
		s = "0x" + s[2:]
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, ErrInvalidHex
	}
	return b, nil
}
