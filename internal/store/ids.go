package store

import "github.com/google/uuid"

// NewID genera un UUIDv7. Dentro del proceso es monótono, así que ordenar por
// id (como string o como uuid en postgres) respeta el orden de creación.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
