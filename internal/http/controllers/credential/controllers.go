package credential

import svc "github.com/dropDatabas3/hellodid/internal/http/services/credential"

// Controllers agrupa todos los controllers del dominio credential.
type Controllers struct {
	Credential *CredentialController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Credential: NewCredentialController(s.Credential)}
}
