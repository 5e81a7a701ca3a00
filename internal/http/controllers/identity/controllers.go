package identity

import svc "github.com/dropDatabas3/hellodid/internal/http/services/identity"

// Controllers agrupa todos los controllers del dominio identity.
type Controllers struct {
	Identity *IdentityController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Identity: NewIdentityController(s.Identity)}
}
