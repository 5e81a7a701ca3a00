package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// FormatEther formatea wei como ether decimal sin perder precisión ("1.0", "0.05").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)

	unit := big.NewInt(params.Ether)
	whole, frac := new(big.Int).QuoRem(abs, unit, new(big.Int))

	fs := frac.String()
	fs = strings.Repeat("0", 18-len(fs)) + fs
	fs = strings.TrimRight(fs, "0")
	if fs == "" {
		fs = "0"
	}
	out := whole.String() + "." + fs
	if neg {
		out = "-" + out
	}
	return out
}
