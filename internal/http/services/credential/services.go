package credential

// Services agrupa los services del dominio credential.
type Services struct {
	Credential Service
}

func NewServices(d Deps) Services {
	return Services{Credential: NewService(d)}
}
