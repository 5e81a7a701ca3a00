package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es el error estándar de la capa HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, solo para logs
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// Wrap crea un AppError envolviendo un error existente
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// FromError convierte un error genérico en AppError. Si no lo es, devuelve
// un 500 cuyo mensaje es el texto del error (los clientes muestran ese texto).
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if err == nil {
		return ErrInternalServerError
	}
	return &AppError{
		Code:       ErrInternalServerError.Code,
		Message:    err.Error(),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// WithDetail devuelve una COPIA con el detalle.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithMessage devuelve una COPIA con otro mensaje visible.
func (e *AppError) WithMessage(msg string) *AppError {
	newErr := *e
	newErr.Message = msg
	return &newErr
}

// WithCause devuelve una COPIA con la causa.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// 400
var (
	ErrBadRequest          = New(http.StatusBadRequest, "BAD_REQUEST", "Bad request")
	ErrInvalidJSON         = New(http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
	ErrMissingFields       = New(http.StatusBadRequest, "MISSING_FIELDS", "Missing fields")
	ErrInvalidAddress      = New(http.StatusBadRequest, "INVALID_ADDRESS", "Invalid Ethereum address format")
	ErrInvalidFormat       = New(http.StatusBadRequest, "INVALID_FORMAT", "Invalid format")
	ErrRecipientIsContract = New(http.StatusBadRequest, "RECIPIENT_IS_CONTRACT",
		"Recipient is a contract. Use a wallet (EOA) address.")
)

// 403 / 404 / 405 / 409 / 413 / 415 / 429
var (
	ErrNotAuthorizedIssuer = New(http.StatusForbidden, "NOT_AUTHORIZED_ISSUER", "Not authorized issuer")
	ErrNotFound            = New(http.StatusNotFound, "NOT_FOUND", "Not found")
	ErrMethodNotAllowed    = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	ErrConflict            = New(http.StatusConflict, "CONFLICT", "Conflict")
	ErrBodyTooLarge        = New(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Request body too large")
	ErrUnsupportedMedia    = New(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
	ErrRateLimitExceeded   = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests")
)

// 5xx
var (
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	ErrChainCallFailed     = New(http.StatusInternalServerError, "CHAIN_CALL_FAILED", "Chain call failed")
	ErrStorageFailure      = New(http.StatusInternalServerError, "STORAGE_FAILURE", "Storage failure")
	ErrServiceUnavailable  = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service unavailable")
)
