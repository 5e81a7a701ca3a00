// Package app arma la aplicación completa a partir de la configuración:
// store, cliente de cadena, contratos, cache, rate limiter, services y router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellodid/internal/cache"
	"github.com/dropDatabas3/hellodid/internal/chain"
	"github.com/dropDatabas3/hellodid/internal/config"
	"github.com/dropDatabas3/hellodid/internal/http/controllers"
	"github.com/dropDatabas3/hellodid/internal/http/router"
	"github.com/dropDatabas3/hellodid/internal/http/services"
	"github.com/dropDatabas3/hellodid/internal/metrics"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
	"github.com/dropDatabas3/hellodid/internal/rate"
	"github.com/dropDatabas3/hellodid/internal/reconcile"
	"github.com/dropDatabas3/hellodid/internal/security/secretbox"
	"github.com/dropDatabas3/hellodid/internal/store"

	// Adapters se registran vía init()
	_ "github.com/dropDatabas3/hellodid/internal/store/adapters/memory"
	_ "github.com/dropDatabas3/hellodid/internal/store/adapters/mongo"
	_ "github.com/dropDatabas3/hellodid/internal/store/adapters/pg"
)

// App es la aplicación cableada.
type App struct {
	Handler    http.Handler
	Services   services.Services
	Reconciler *reconcile.Runner

	Store store.AdapterConnection
	Chain *chain.Client

	closers []func() error
}

// New construye la aplicación. Si algo falla, libera lo ya abierto.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Component("app"))
	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	// 1. Store
	a.Store, err = store.OpenAdapter(ctx, store.AdapterConfig{
		Name:         cfg.Storage.Driver,
		DSN:          cfg.Storage.DSN,
		Database:     cfg.Storage.Database,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
		MaxIdleConns: cfg.Storage.MaxIdleConns,
		Migrate:      cfg.Storage.Migrate,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.Store.Close)
	log.Info("store connected", logger.String("driver", a.Store.Name()))

	// 2. Cache + rate limiter
	var rdb *redis.Client
	if cfg.Cache.Kind == "redis" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Cache.Redis.Addr, DB: cfg.Cache.Redis.DB})
		a.closers = append(a.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			// no fatal: el cache nunca es la fuente de verdad
			log.Warn("redis ping failed", logger.Err(err))
		}
	}
	var cc cache.Client
	if rdb != nil {
		cc = cache.NewRedis(rdb, cfg.Cache.Redis.Prefix)
	} else {
		cc = cache.NewMemory(cfg.Cache.Redis.Prefix)
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		if rdb != nil {
			limiter = rate.NewRedisLimiter(rdb, cfg.Cache.Redis.Prefix+":rl:", cfg.Rate.MaxRequests, cfg.Rate.Window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window)
		}
	}

	// 3. Crypto
	var box *secretbox.Box
	if cfg.Crypto.AESSecretHex != "" {
		if box, err = secretbox.NewFromHex(cfg.Crypto.AESSecretHex); err != nil {
			return nil, fmt.Errorf("AES_SECRET_HEX: %w", err)
		}
	} else {
		log.Warn("AES_SECRET_HEX not set, /register disabled")
	}

	// 4. Chain
	deps := services.Deps{Store: a.Store, Cache: cc, Box: box, RoleTTL: cfg.Cache.RoleTTL}
	if cfg.ChainEnabled() {
		if err := a.dialChain(ctx, cfg, &deps); err != nil {
			return nil, err
		}
	} else {
		log.Warn("chain disabled, on-chain operations will fail")
	}

	// 5. Services → controllers → router
	a.Services = services.New(deps)
	a.Handler = router.New(router.Deps{
		Controllers: controllers.New(a.Services),
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimiter: limiter,
	})
	a.Reconciler = &reconcile.Runner{
		Reconciler: a.Services.Access.Consent,
		Interval:   cfg.Reconcile.Interval,
		BatchSize:  cfg.Reconcile.BatchSize,
	}
	return a, nil
}

func (a *App) dialChain(ctx context.Context, cfg *config.Config, deps *services.Deps) error {
	log := logger.From(ctx).With(logger.Component("app"))

	c, err := chain.Dial(ctx, chain.Config{
		RPCURL:         cfg.Chain.RPCURL,
		PrivateKey:     cfg.Chain.PrivateKey,
		ConfirmTimeout: cfg.Chain.ConfirmTimeout,
	})
	if err != nil {
		return err
	}
	a.Chain = c
	a.closers = append(a.closers, func() error { c.Close(); return nil })
	deps.Chain = c
	log.Info("chain connected",
		logger.String("chain_id", c.ChainID().String()),
		logger.Address(c.From().Hex()),
	)

	if addr, ok := contractAddress(cfg.Chain.AccessControlContract); ok {
		if deps.AccessRegistry, err = chain.NewAccessRegistry(c, addr); err != nil {
			return err
		}
		log.Info("contract bound", logger.String("name", "AccessControl"), logger.Contract(addr.Hex()))
	}
	if addr, ok := contractAddress(cfg.Chain.IdentityContract); ok {
		if deps.IdentityRegistry, err = chain.NewIdentityRegistry(c, addr); err != nil {
			return err
		}
		log.Info("contract bound", logger.String("name", "Identity"), logger.Contract(addr.Hex()))
	}
	if addr, ok := contractAddress(cfg.Chain.CredentialContract); ok {
		if deps.CredentialRegistry, err = chain.NewCredentialRegistry(c, addr); err != nil {
			return err
		}
		log.Info("contract bound", logger.String("name", "Credential"), logger.Contract(addr.Hex()))
	}
	return nil
}

// contractAddress: Validate ya rechazó direcciones mal formadas.
func contractAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// Close libera los recursos en orden inverso.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
