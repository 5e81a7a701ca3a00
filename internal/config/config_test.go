package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":4000", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "memory", c.Cache.Kind)
	require.False(t, c.ChainEnabled())
	require.Equal(t, time.Duration(0), c.Reconcile.Interval)
	require.NoError(t, c.Validate())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
storage:
  driver: postgres
  dsn: postgres://u:p@localhost/db
reconcile:
  interval: 30s
`), 0o600))

	t.Setenv("PORT", "5000")
	t.Setenv("RECONCILE_INTERVAL", "1m")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":5000", c.Server.Addr)
	require.Equal(t, "postgres", c.Storage.Driver)
	require.Equal(t, time.Minute, c.Reconcile.Interval)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB", "did")
	t.Setenv("SEPOLIA_RPC_URL", "https://rpc.sepolia.example")
	t.Setenv("SEPOLIA_PRIVATE_KEY", testKey)
	t.Setenv("ACCESS_CONTROL_CONTRACT_ADDRESS", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "mongo", c.Storage.Driver)
	require.Equal(t, "did", c.Storage.Database)
	require.Equal(t, "redis", c.Cache.Kind)
	require.True(t, c.ChainEnabled())

	require.NoError(t, c.Validate())
	require.Equal(t, "0x"+testKey, c.Chain.PrivateKey)
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", c.Chain.AccessControlContract)
}

func TestValidate_ReportsAllChainProblems(t *testing.T) {
	t.Setenv("CHAIN_ENABLED", "true")
	t.Setenv("IDENTITY_CONTRACT", "0x1234")

	c, err := Load("")
	require.NoError(t, err)

	err = c.Validate()
	require.Error(t, err)
	msg := err.Error()
	require.True(t, strings.Contains(msg, "SEPOLIA_RPC_URL"), msg)
	require.True(t, strings.Contains(msg, "SEPOLIA_PRIVATE_KEY"), msg)
	require.True(t, strings.Contains(msg, "ACCESS_CONTROL_CONTRACT missing"), msg)
	require.True(t, strings.Contains(msg, "IDENTITY_CONTRACT"), msg)
}

func TestValidate_AESKey(t *testing.T) {
	t.Setenv("AES_SECRET_HEX", "abcd")
	c, err := Load("")
	require.NoError(t, err)
	require.ErrorContains(t, c.Validate(), "AES_SECRET_HEX")
}

func TestNormalizePrivateKey(t *testing.T) {
	pk, err := NormalizePrivateKey("  " + testKey + "\n")
	require.NoError(t, err)
	require.Equal(t, "0x"+testKey, pk)

	pk, err = NormalizePrivateKey("0X" + testKey)
	require.NoError(t, err)
	require.Equal(t, "0x"+testKey, pk)

	_, err = NormalizePrivateKey("")
	require.Error(t, err)
	_, err = NormalizePrivateKey("0x1234")
	require.Error(t, err)
}
