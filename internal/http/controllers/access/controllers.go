package access

import svc "github.com/dropDatabas3/hellodid/internal/http/services/access"

// Controllers agrupa todos los controllers del dominio access.
type Controllers struct {
	Consent *ConsentController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Consent: NewConsentController(s.Consent)}
}
