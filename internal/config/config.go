package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/hellodid/internal/security/secretbox"
	"github.com/dropDatabas3/hellodid/internal/validation"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"app_env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		// WriteTimeout tiene que cubrir la espera de confirmación on-chain.
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// memory | mongo | postgres
		Driver       string `yaml:"driver"`
		DSN          string `yaml:"dsn"`
		Database     string `yaml:"database"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		Migrate      bool   `yaml:"migrate"`
	} `yaml:"storage"`

	Chain struct {
		// nil = habilitado si hay RPC URL
		Enabled               *bool         `yaml:"enabled"`
		RPCURL                string        `yaml:"rpc_url"`
		PrivateKey            string        `yaml:"private_key"`
		IdentityContract      string        `yaml:"identity_contract"`
		CredentialContract    string        `yaml:"credential_contract"`
		AccessControlContract string        `yaml:"access_control_contract"`
		ConfirmTimeout        time.Duration `yaml:"confirm_timeout"`
	} `yaml:"chain"`

	Crypto struct {
		AESSecretHex string `yaml:"aes_secret_hex"`
	} `yaml:"crypto"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		RoleTTL time.Duration `yaml:"role_ttl"`
	} `yaml:"cache"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
	} `yaml:"rate"`

	Reconcile struct {
		// 0 = deshabilitado
		Interval  time.Duration `yaml:"interval"`
		BatchSize int           `yaml:"batch_size"`
	} `yaml:"reconcile"`
}

// Load lee path (si existe), aplica defaults y variables de entorno.
// Un path vacío o inexistente no es error: todo puede venir del entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":4000"
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 3 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
		if c.Storage.DSN != "" {
			c.Storage.Driver = "mongo"
		}
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "hellodid"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
		if c.Cache.Redis.Addr != "" {
			c.Cache.Kind = "redis"
		}
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "hellodid"
	}
	if c.Cache.RoleTTL == 0 {
		c.Cache.RoleTTL = time.Minute
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Reconcile.BatchSize == 0 {
		c.Reconcile.BatchSize = 100
	}
	if c.Chain.Enabled == nil {
		on := c.Chain.RPCURL != ""
		c.Chain.Enabled = &on
	}
}

// ChainEnabled indica si hay que conectar al nodo.
func (c *Config) ChainEnabled() bool { return c.Chain.Enabled != nil && *c.Chain.Enabled }

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvFirst(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := getEnvStr(k); ok {
			return v, true
		}
	}
	return "", false
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
// Los nombres heredados (PORT, MONGO_URI, SEPOLIA_*) siguen valiendo.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = v
	}

	// SERVER
	if v, ok := getEnvStr("PORT"); ok {
		c.Server.Addr = ":" + strings.TrimPrefix(strings.TrimSpace(v), ":")
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvDur("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}

	// STORAGE
	if v, ok := getEnvStr("MONGO_URI"); ok {
		c.Storage.Driver = "mongo"
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("MONGO_DB"); ok {
		c.Storage.Database = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_OPEN_CONNS"); ok {
		c.Storage.MaxOpenConns = v
	}
	if v, ok := getEnvBool("STORAGE_MIGRATE"); ok {
		c.Storage.Migrate = v
	}

	// CHAIN
	if v, ok := getEnvBool("CHAIN_ENABLED"); ok {
		c.Chain.Enabled = &v
	}
	if v, ok := getEnvStr("SEPOLIA_RPC_URL"); ok {
		c.Chain.RPCURL = v
	}
	if v, ok := getEnvStr("SEPOLIA_PRIVATE_KEY"); ok {
		c.Chain.PrivateKey = v
	}
	if v, ok := getEnvFirst("IDENTITY_CONTRACT", "IDENTITY_CONTRACT_ADDRESS"); ok {
		c.Chain.IdentityContract = v
	}
	if v, ok := getEnvFirst("CREDENTIAL_CONTRACT", "CREDENTIAL_CONTRACT_ADDRESS"); ok {
		c.Chain.CredentialContract = v
	}
	if v, ok := getEnvFirst("ACCESS_CONTROL_CONTRACT", "ACCESS_CONTROL_CONTRACT_ADDRESS"); ok {
		c.Chain.AccessControlContract = v
	}
	if v, ok := getEnvDur("CHAIN_CONFIRM_TIMEOUT"); ok {
		c.Chain.ConfirmTimeout = v
	}

	// CRYPTO
	if v, ok := getEnvStr("AES_SECRET_HEX"); ok {
		c.Crypto.AESSecretHex = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}

	// RECONCILE
	if v, ok := getEnvDur("RECONCILE_INTERVAL"); ok {
		c.Reconcile.Interval = v
	}
	if v, ok := getEnvInt("RECONCILE_BATCH_SIZE"); ok {
		c.Reconcile.BatchSize = v
	}
}

var privateKeyHex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// NormalizePrivateKey recorta, agrega 0x si falta y exige 64 caracteres hex.
func NormalizePrivateKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("private key missing")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	s = "0x" + s[2:]
	if !privateKeyHex.MatchString(s) {
		return "", errors.New("invalid private key format, expected 64 hex characters")
	}
	return s, nil
}

// Validate normaliza claves/direcciones y reporta todos los problemas juntos.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory":
	case "mongo", "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage: %s requires STORAGE_DSN (or MONGO_URI)", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unknown driver %q", c.Storage.Driver))
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache: redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache: unknown kind %q", c.Cache.Kind))
	}

	if c.ChainEnabled() {
		if strings.TrimSpace(c.Chain.RPCURL) == "" {
			errs = append(errs, errors.New("chain: SEPOLIA_RPC_URL missing"))
		}
		if pk, err := NormalizePrivateKey(c.Chain.PrivateKey); err != nil {
			errs = append(errs, fmt.Errorf("chain: SEPOLIA_PRIVATE_KEY: %w", err))
		} else {
			c.Chain.PrivateKey = pk
		}
		if strings.TrimSpace(c.Chain.AccessControlContract) == "" {
			errs = append(errs, errors.New("chain: ACCESS_CONTROL_CONTRACT missing"))
		}
	}

	for name, p := range map[string]*string{
		"IDENTITY_CONTRACT":       &c.Chain.IdentityContract,
		"CREDENTIAL_CONTRACT":     &c.Chain.CredentialContract,
		"ACCESS_CONTROL_CONTRACT": &c.Chain.AccessControlContract,
	} {
		if strings.TrimSpace(*p) == "" {
			continue
		}
		addr, err := validation.ChecksumAddress(*p)
		if err != nil {
			errs = append(errs, fmt.Errorf("chain: %s: %w", name, err))
			continue
		}
		*p = addr
	}

	if c.Crypto.AESSecretHex != "" {
		if _, err := secretbox.ParseKey(c.Crypto.AESSecretHex); err != nil {
			errs = append(errs, fmt.Errorf("crypto: AES_SECRET_HEX: %w", err))
		}
	}

	if c.Reconcile.Interval < 0 {
		errs = append(errs, errors.New("reconcile: interval must be >= 0"))
	}
	if c.Rate.Enabled && c.Rate.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate: max_requests must be > 0"))
	}

	return errors.Join(errs...)
}
