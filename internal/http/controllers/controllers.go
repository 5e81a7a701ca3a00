// Package controllers es el composition root de los controllers HTTP.
// Cada dominio vive en su sub-paquete con su propio aggregator.
package controllers

import (
	"github.com/dropDatabas3/hellodid/internal/http/controllers/access"
	"github.com/dropDatabas3/hellodid/internal/http/controllers/credential"
	"github.com/dropDatabas3/hellodid/internal/http/controllers/health"
	"github.com/dropDatabas3/hellodid/internal/http/controllers/identity"
	"github.com/dropDatabas3/hellodid/internal/http/services"
)

// Controllers agrupa todos los controllers por dominio.
type Controllers struct {
	Access     *access.Controllers
	Identity   *identity.Controllers
	Credential *credential.Controllers
	Health     *health.Controllers
}

// New crea todos los controllers a partir de los services.
func New(s services.Services) *Controllers {
	return &Controllers{
		Access:     access.NewControllers(s.Access),
		Identity:   identity.NewControllers(s.Identity),
		Credential: credential.NewControllers(s.Credential),
		Health:     health.NewControllers(s.Health),
	}
}
