package canonhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonical_SortsKeys(t *testing.T) {
	a := json.RawMessage(`{"b":1,"a":{"y":true,"x":"<&>"}}`)
	got, err := Canonical(a)
	require.NoError(t, err)
	require.Equal(t, `{"a":{"x":"<&>","y":true},"b":1}`, string(got))
}

func TestSumHex_KYCScenario(t *testing.T) {
	payload := map[string]any{"reason": "KYC"}

	first, err := SumHex(payload)
	require.NoError(t, err)
	second, err := SumHex(json.RawMessage(`{ "reason" : "KYC" }`))
	require.NoError(t, err)
	require.Equal(t, first, second)

	sum := sha256.Sum256([]byte(`{"reason":"KYC"}`))
	require.Equal(t, "0x"+hex.EncodeToString(sum[:]), first)
	require.Len(t, first, 66)
}

func TestSumHex_KeyOrderIndependent(t *testing.T) {
	x, err := SumHex(json.RawMessage(`{"purpose":"loan","scope":["income","id"],"ttl":30}`))
	require.NoError(t, err)
	y, err := SumHex(json.RawMessage(`{"ttl":30,"scope":["income","id"],"purpose":"loan"}`))
	require.NoError(t, err)
	require.Equal(t, x, y)

	// El orden de arrays sí importa.
	z, err := SumHex(json.RawMessage(`{"ttl":30,"scope":["id","income"],"purpose":"loan"}`))
	require.NoError(t, err)
	require.NotEqual(t, x, z)
}

func TestSumHex_PreservesNumbers(t *testing.T) {
	a, err := Canonical(json.RawMessage(`{"n":10000000000000000001}`))
	require.NoError(t, err)
	require.Equal(t, `{"n":10000000000000000001}`, string(a))
}

func TestCanonical_Rejects(t *testing.T) {
	_, err := Canonical(nil)
	require.ErrorIs(t, err, ErrEmptyPayload)

	_, err = Canonical(json.RawMessage(`null`))
	require.ErrorIs(t, err, ErrEmptyPayload)

	_, err = Canonical(json.RawMessage(`{"a":1} {"b":2}`))
	require.Error(t, err)

	_, err = Canonical(json.RawMessage(`{bad`))
	require.Error(t, err)
}
