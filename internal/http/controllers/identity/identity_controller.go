// Package identity contiene los controllers de registro e identidad.
package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/hellodid/internal/http/dto/identity"
	httperrors "github.com/dropDatabas3/hellodid/internal/http/errors"
	"github.com/dropDatabas3/hellodid/internal/http/helpers"
	svc "github.com/dropDatabas3/hellodid/internal/http/services/identity"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
)

// IdentityController maneja /register, /identity/registered/{address},
// /profile/{address} y /signer.
type IdentityController struct {
	service svc.Service
}

func NewIdentityController(service svc.Service) *IdentityController {
	return &IdentityController{service: service}
}

// Register maneja POST /register
func (c *IdentityController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("IdentityController.Register"))

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Register(ctx, svc.RegisterInput{Address: req.Address, Profile: req.Profile})
	if err != nil {
		log.Debug("register failed", logger.Err(err))
		writeIdentityError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.RegisterResponse{OK: true, TxHash: res.TxHash, ProfileHash: res.ProfileHash})
}

// IsRegistered maneja GET /identity/registered/{address}
func (c *IdentityController) IsRegistered(w http.ResponseWriter, r *http.Request) {
	ok, err := c.service.IsRegistered(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.RegisteredResponse{Success: true, IsRegistered: ok})
}

type profileResponse struct {
	Success     bool      `json:"success"`
	Address     string    `json:"address"`
	ProfileHash string    `json:"profileHash"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Profile maneja GET /profile/{address}. Nunca devuelve el perfil en claro.
func (c *IdentityController) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := c.service.Profile(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, profileResponse{
		Success:     true,
		Address:     p.Address,
		ProfileHash: p.ProfileHash,
		UpdatedAt:   p.UpdatedAt,
	})
}

// Signer maneja GET /signer
func (c *IdentityController) Signer(w http.ResponseWriter, r *http.Request) {
	addr, bal, err := c.service.Signer(r.Context())
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SignerResponse{Success: true, Address: addr, Balance: bal})
}

func writeIdentityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithMessage("Missing address/profile"))
	case errors.Is(err, svc.ErrMissingAddress):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithMessage("Missing address"))
	case errors.Is(err, svc.ErrInvalidAddress):
		httperrors.WriteError(w, httperrors.ErrInvalidAddress)
	case errors.Is(err, svc.ErrInvalidProfile):
		httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithMessage("Profile must be a JSON value"))
	case errors.Is(err, svc.ErrProfileNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound.WithMessage("Profile not found"))
	case errors.Is(err, svc.ErrChainDisabled), errors.Is(err, svc.ErrCryptoDisabled):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail(err.Error()))
	default:
		httperrors.WriteError(w, err)
	}
}
