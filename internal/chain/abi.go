package chain

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abi/*.json
var abiFS embed.FS

const (
	abiAccessControl = "access_control"
	abiIdentity      = "identity"
	abiCredential    = "credential"
)

var (
	abiMu    sync.Mutex
	abiCache = map[string]abi.ABI{}
)

// loadABI parsea (una sola vez) el ABI embebido con ese nombre.
func loadABI(name string) (abi.ABI, error) {
	abiMu.Lock()
	defer abiMu.Unlock()

	if parsed, ok := abiCache[name]; ok {
		return parsed, nil
	}
	raw, err := abiFS.ReadFile("abi/" + name + ".json")
	if err != nil {
		return abi.ABI{}, fmt.Errorf("chain: abi %s: %w", name, err)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("chain: parse abi %s: %w", name, err)
	}
	abiCache[name] = parsed
	return parsed, nil
}
