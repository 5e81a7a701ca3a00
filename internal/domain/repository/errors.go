package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (ej: duplicado, constraint violation).
	ErrConflict = errors.New("conflict")

	// ErrDuplicateRequest indica que otro registro ya tiene asignado ese requestId.
	// Solo aplica a requestId no vacíos.
	ErrDuplicateRequest = errors.New("duplicate request id")

	// ErrNoDatabase indica que no hay almacenamiento configurado.
	ErrNoDatabase = errors.New("no database configured")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict o ErrDuplicateRequest.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrDuplicateRequest)
}
