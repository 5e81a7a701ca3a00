package identity

// Services agrupa los services del dominio identity.
type Services struct {
	Identity Service
}

func NewServices(d Deps) Services {
	return Services{Identity: NewService(d)}
}
