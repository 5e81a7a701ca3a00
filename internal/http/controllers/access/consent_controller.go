// Package access contiene los controllers del protocolo de consentimiento.
package access

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/hellodid/internal/http/dto/access"
	httperrors "github.com/dropDatabas3/hellodid/internal/http/errors"
	"github.com/dropDatabas3/hellodid/internal/http/helpers"
	svc "github.com/dropDatabas3/hellodid/internal/http/services/access"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
)

// ConsentController maneja POST /requestAccess, POST /consent y GET /consents/{address}.
type ConsentController struct {
	service svc.Service
}

func NewConsentController(service svc.Service) *ConsentController {
	return &ConsentController{service: service}
}

// RequestAccess maneja POST /requestAccess
func (c *ConsentController) RequestAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ConsentController.RequestAccess"))

	var req dto.RequestAccessRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.RequestAccess(ctx, svc.RequestAccessInput{
		Requester: req.Requester,
		Subject:   req.Subject,
		Purpose:   req.Purpose,
	})
	if err != nil {
		log.Debug("request access failed", logger.String("kind", svc.KindOf(err).String()), logger.Err(err))
		writeAccessError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.RequestAccessResponse{
		OK:          true,
		TxHash:      res.TxHash,
		PurposeHash: res.PurposeHash,
		RequestID:   res.RequestID,
	})
}

// Consent maneja POST /consent
func (c *ConsentController) Consent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ConsentController.Consent"))

	var req dto.ConsentRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Approve(ctx, svc.ApproveInput{
		RequestID: req.RequestID,
		Subject:   req.Subject,
		Signature: req.Signature,
		Proof:     req.OptionalProof,
	})
	if err != nil {
		log.Debug("consent failed", logger.String("kind", svc.KindOf(err).String()), logger.Err(err))
		writeAccessError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ConsentResponse{OK: true, TxHash: res.TxHash})
}

// ListByParticipant maneja GET /consents/{address}
func (c *ConsentController) ListByParticipant(w http.ResponseWriter, r *http.Request) {
	addr, list, err := c.service.ListByParticipant(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeAccessError(w, err)
		return
	}

	items := make([]dto.ConsentItem, 0, len(list))
	for _, rec := range list {
		items = append(items, dto.ConsentItem{
			ID:          rec.ID,
			RequestID:   rec.RequestID,
			TxHash:      rec.TxHash,
			Requester:   rec.Requester,
			Subject:     rec.Subject,
			PurposeHash: rec.PurposeHash,
			Approved:    rec.Approved,
			Signature:   rec.Signature,
			CreatedAt:   rec.CreatedAt,
		})
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ConsentListResponse{Success: true, Address: addr, Consents: items})
}

// writeAccessError traduce el kind del orquestador al AppError correspondiente.
func writeAccessError(w http.ResponseWriter, err error) {
	var ae *svc.Error
	if !errors.As(err, &ae) {
		httperrors.WriteError(w, err)
		return
	}

	switch ae.Kind {
	case svc.KindMissingFields:
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case svc.KindInvalidAddress:
		httperrors.WriteError(w, httperrors.ErrInvalidAddress)
	case svc.KindInvalidFormat:
		httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithMessage(ae.Error()))
	case svc.KindNotFound:
		httperrors.WriteError(w, httperrors.ErrNotFound)
	case svc.KindChainCallFailed:
		appErr := httperrors.ErrChainCallFailed.WithMessage(ae.Error()).WithCause(ae)
		if ae.TxHash != "" {
			appErr = appErr.WithDetail("on-chain transaction " + ae.TxHash + " sent but not confirmed; it may still be mined")
		}
		httperrors.WriteError(w, appErr)
	case svc.KindStorageFailure:
		appErr := httperrors.ErrStorageFailure.WithMessage(ae.Error()).WithCause(ae)
		if ae.TxHash != "" {
			appErr = appErr.WithDetail("on-chain transaction " + ae.TxHash + " confirmed; off-chain record not written")
		}
		httperrors.WriteError(w, appErr)
	default:
		httperrors.WriteError(w, err)
	}
}
