package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegister_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveChainCall_CountsFailures(t *testing.T) {
	before := testutil.ToFloat64(ChainCallFailures.WithLabelValues("approve_test"))

	ObserveChainCall("approve_test", time.Now(), nil)
	require.Equal(t, before, testutil.ToFloat64(ChainCallFailures.WithLabelValues("approve_test")))

	ObserveChainCall("approve_test", time.Now(), errors.New("reverted"))
	require.Equal(t, before+1, testutil.ToFloat64(ChainCallFailures.WithLabelValues("approve_test")))
}
