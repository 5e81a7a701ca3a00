// Package services es el composition root de los services HTTP.
//
//	deps := services.Deps{...}      ← dependencias externas (store, chain, cache)
//	svcs := services.New(deps)      ← services por dominio
//	ctrls := controllers.New(svcs)  ← controllers con services
//	router.New(router.Deps{...})    ← rutas
package services

import (
	"context"
	"math/big"
	"time"

	"github.com/dropDatabas3/hellodid/internal/audit"
	"github.com/dropDatabas3/hellodid/internal/cache"
	"github.com/dropDatabas3/hellodid/internal/chain"
	"github.com/dropDatabas3/hellodid/internal/http/services/access"
	"github.com/dropDatabas3/hellodid/internal/http/services/credential"
	"github.com/dropDatabas3/hellodid/internal/http/services/health"
	"github.com/dropDatabas3/hellodid/internal/http/services/identity"
	"github.com/dropDatabas3/hellodid/internal/security/secretbox"
	"github.com/dropDatabas3/hellodid/internal/store"
)

// Deps contiene las dependencias base para crear los services.
// Los punteros de cadena son nil cuando la cadena o ese contrato no están configurados.
type Deps struct {
	// ─── Infraestructura ───
	Store store.AdapterConnection
	Chain *chain.Client
	Cache cache.Client

	// ─── Contratos ───
	AccessRegistry     *chain.AccessRegistry
	IdentityRegistry   *chain.IdentityRegistry
	CredentialRegistry *chain.CredentialRegistry

	// ─── Configuración ───
	Box     *secretbox.Box
	RoleTTL time.Duration
}

// Services agrupa todos los sub-services por dominio.
type Services struct {
	Access     access.Services
	Identity   identity.Services
	Credential credential.Services
	Health     health.HealthService
}

// New crea todos los services a partir de las dependencias.
func New(d Deps) Services {
	rec := audit.New(d.Store.Audit())

	// Evitar interfaces con puntero nil adentro.
	var accessReg access.Registry
	if d.AccessRegistry != nil {
		accessReg = d.AccessRegistry
	}
	var idReg identity.Registry
	var roles credential.RoleChecker
	if d.IdentityRegistry != nil {
		idReg = d.IdentityRegistry
		roles = d.IdentityRegistry
	}
	var credReg credential.Registry
	if d.CredentialRegistry != nil {
		credReg = d.CredentialRegistry
	}

	var signer identity.Signer
	var chainCheck health.ChainChecker
	var chainID string
	credDeps := credential.Deps{
		Registry:    credReg,
		Roles:       roles,
		Credentials: d.Store.Credentials(),
		Cache:       d.Cache,
		CacheTTL:    d.RoleTTL,
		Audit:       rec,
	}
	if d.Chain != nil {
		signer = d.Chain
		chainCheck = d.Chain
		chainID = chainIDString(d.Chain.ChainID())
		credDeps.Issuer = d.Chain.From()
	}

	var cacheCheck func(context.Context) error
	if d.Cache != nil {
		cacheCheck = d.Cache.Ping
	}

	return Services{
		Access: access.NewServices(access.Deps{
			Registry: accessReg,
			Consents: d.Store.Consents(),
			Audit:    rec,
		}),
		Identity: identity.NewServices(identity.Deps{
			Registry: idReg,
			Signer:   signer,
			Profiles: d.Store.Profiles(),
			Box:      d.Box,
			Cache:    d.Cache,
			CacheTTL: d.RoleTTL,
			Audit:    rec,
		}),
		Credential: credential.NewServices(credDeps),
		Health: health.NewHealthService(health.Deps{
			StoreCheck: d.Store.Ping,
			CacheCheck: cacheCheck,
			Chain:      chainCheck,
			ChainID:    chainID,
		}),
	}
}

func chainIDString(id *big.Int) string {
	if id == nil {
		return ""
	}
	return id.String()
}
