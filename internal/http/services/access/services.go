package access

// Services agrupa los services del dominio access.
type Services struct {
	Consent Service
}

// NewServices crea el agregador de services access.
func NewServices(d Deps) Services {
	return Services{Consent: NewService(d)}
}
