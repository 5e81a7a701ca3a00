// Package credential contiene los controllers de credenciales.
package credential

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/hellodid/internal/chain"
	dto "github.com/dropDatabas3/hellodid/internal/http/dto/credential"
	httperrors "github.com/dropDatabas3/hellodid/internal/http/errors"
	"github.com/dropDatabas3/hellodid/internal/http/helpers"
	svc "github.com/dropDatabas3/hellodid/internal/http/services/credential"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
)

type CredentialController struct {
	service svc.Service
}

func NewCredentialController(service svc.Service) *CredentialController {
	return &CredentialController{service: service}
}

// Issue maneja POST /issueCredential
func (c *CredentialController) Issue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CredentialController.Issue"))

	var req dto.IssueRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.service.Issue(ctx, svc.IssueInput{To: req.To, MetadataURI: req.MetadataURI, Payload: req.Payload})
	if err != nil {
		log.Debug("issue failed", logger.Err(err))
		writeCredentialError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.IssueResponse{
		OK:             true,
		TxHash:         res.TxHash,
		TokenID:        res.TokenID,
		CredentialHash: res.CredentialHash,
	})
}

// Verify maneja POST /verifyCredential
func (c *CredentialController) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.service.Verify(r.Context(), string(req.TokenID))
	if err != nil {
		writeCredentialError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.VerifyResponse{Owner: res.Owner, CredentialHash: res.CredentialHash, Revoked: res.Revoked})
}

// Revoke maneja POST /revokeCredential
func (c *CredentialController) Revoke(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	tx, err := c.service.Revoke(r.Context(), string(req.TokenID))
	if err != nil {
		writeCredentialError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.RevokeResponse{OK: true, TxHash: tx})
}

func writeCredentialError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrMissingTokenID):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithMessage("Missing tokenId"))
	case errors.Is(err, svc.ErrInvalidAddress):
		httperrors.WriteError(w, httperrors.ErrInvalidAddress)
	case errors.Is(err, svc.ErrInvalidTokenID):
		httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithMessage("Invalid tokenId"))
	case errors.Is(err, svc.ErrInvalidPayload):
		httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithMessage("Payload must be a JSON value"))
	case errors.Is(err, svc.ErrNotAuthorizedIssuer):
		httperrors.WriteError(w, httperrors.ErrNotAuthorizedIssuer)
	case errors.Is(err, chain.ErrRecipientIsContract):
		httperrors.WriteError(w, httperrors.ErrRecipientIsContract)
	case errors.Is(err, svc.ErrChainDisabled):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail(err.Error()))
	default:
		httperrors.WriteError(w, err)
	}
}
