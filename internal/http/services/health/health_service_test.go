package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeChain struct{ err error }

func (f fakeChain) Ping(context.Context) error { return f.err }
func (f fakeChain) SignerInfo(context.Context) (string, string, error) {
	return "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "1.0", nil
}

func ok(context.Context) error { return nil }

func TestCheck(t *testing.T) {
	ctx := context.Background()

	res := NewHealthService(Deps{StoreCheck: ok, Chain: fakeChain{}, ChainID: "11155111"}).Check(ctx)
	require.Equal(t, "ready", res.Status)
	require.Equal(t, "11155111", res.ChainID)
	require.Equal(t, "ok", res.Components["signer"].Status)
	require.Equal(t, "disabled", res.Components["cache"].Status)

	res = NewHealthService(Deps{StoreCheck: ok, Chain: fakeChain{err: errors.New("dial tcp: refused")}}).Check(ctx)
	require.Equal(t, "degraded", res.Status)
	require.Contains(t, res.Components["chain"].Message, "refused")

	res = NewHealthService(Deps{StoreCheck: func(context.Context) error { return errors.New("no reachable servers") }}).Check(ctx)
	require.Equal(t, "unavailable", res.Status)
	require.Equal(t, "disabled", res.Components["chain"].Status)

	res = NewHealthService(Deps{}).Check(ctx)
	require.Equal(t, "unavailable", res.Status)
}
