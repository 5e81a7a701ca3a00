// Package access orquesta el protocolo de solicitud/consentimiento entre el
// AccessControl on-chain y el cache off-chain de consentimientos.
//
// La cadena es la fuente de verdad: primero se confirma la transacción y
// después se escribe el cache. Si el cache falla, queda detrás de la cadena
// y eso se loguea como drift; nunca al revés.
package access

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodid/internal/audit"
	"github.com/dropDatabas3/hellodid/internal/canonhash"
	"github.com/dropDatabas3/hellodid/internal/chain"
	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/metrics"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
	"github.com/dropDatabas3/hellodid/internal/util"
	"github.com/dropDatabas3/hellodid/internal/validation"
)

// Registry es la vista del contrato AccessControl que usa el orquestador.
// *chain.AccessRegistry la implementa.
type Registry interface {
	RequestAccess(ctx context.Context, subject common.Address, purposeHash common.Hash) (chain.RequestAccessResult, error)
	Approve(ctx context.Context, requestID common.Hash, signature, proof []byte) (chain.TxResult, error)
	LookupRequestID(ctx context.Context, txHash common.Hash) (string, bool, error)
}

// Service define las operaciones del protocolo de consentimiento.
type Service interface {
	RequestAccess(ctx context.Context, in RequestAccessInput) (*RequestAccessResult, error)
	Approve(ctx context.Context, in ApproveInput) (*ApproveResult, error)
	ListByParticipant(ctx context.Context, address string) (string, []repository.Consent, error)
	Reconcile(ctx context.Context, limit int) (ReconcileResult, error)
}

type RequestAccessInput struct {
	Requester string
	Subject   string
	Purpose   json.RawMessage
}

type RequestAccessResult struct {
	TxHash      string
	PurposeHash string
	RequestID   string // vacío si el receipt no trajo el evento
	Consent     *repository.Consent
}

type ApproveInput struct {
	RequestID string
	Subject   string
	Signature string
	Proof     string
}

type ApproveResult struct {
	TxHash    string
	RequestID string
	Drift     bool // la cadena aprobó pero el cache no tenía el registro
}

// Deps contiene las dependencias del service.
type Deps struct {
	Registry Registry
	Consents repository.ConsentRepository
	Audit    *audit.Recorder
}

type service struct {
	deps Deps

	mu              sync.Mutex
	reconcileCursor string // ID del último registro visto por Reconcile
}

// NewService crea el orquestador. Registry nil deja la cadena deshabilitada:
// toda operación que la necesite falla con KindChainCallFailed.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

var errChainDisabled = errors.New("access control contract not configured")

const componentAccess = "access"

func (s *service) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentAccess),
		logger.Op(op),
	)
}

// RequestAccess valida, envía requestAccess on-chain y, solo si confirmó,
// crea el registro off-chain y le asigna el requestId del evento.
func (s *service) RequestAccess(ctx context.Context, in RequestAccessInput) (*RequestAccessResult, error) {
	const op = "RequestAccess"
	log := s.log(ctx, op)

	if strings.TrimSpace(in.Requester) == "" || strings.TrimSpace(in.Subject) == "" || isFalsyJSON(in.Purpose) {
		consentOp(op, "invalid")
		return nil, missingFields(op)
	}

	// Ambas direcciones se validan antes de cualquier efecto.
	requester, err := validation.NormalizeAddress(in.Requester)
	if err != nil {
		consentOp(op, "invalid")
		return nil, invalidAddress(op, "requester", err)
	}
	subject, err := validation.NormalizeAddress(in.Subject)
	if err != nil {
		consentOp(op, "invalid")
		return nil, invalidAddress(op, "subject", err)
	}

	purposeHash, err := canonhash.Sum(in.Purpose)
	if err != nil {
		consentOp(op, "invalid")
		return nil, invalidFormat(op, "purpose", err)
	}

	log = log.With(
		logger.Requester(requester.Hex()),
		logger.Subject(subject.Hex()),
		logger.PurposeHash(purposeHash.Hex()),
	)

	if s.deps.Registry == nil {
		consentOp(op, "chain_error")
		return nil, chainFailed(op, errChainDisabled)
	}

	start := time.Now()
	res, err := s.deps.Registry.RequestAccess(ctx, subject, purposeHash)
	metrics.ObserveChainCall("request_access", start, err)
	if err != nil {
		log.Error("requestAccess on-chain failed", logger.Err(err))
		consentOp(op, "chain_error")
		if txHash, ok := chain.PendingTxHash(err); ok {
			s.keepPending(ctx, log, requester, subject, purposeHash, txHash)
		}
		return nil, chainFailed(op, err)
	}
	log = log.With(logger.TxHash(res.TxHash), logger.BlockNumber(res.BlockNumber))

	out := &RequestAccessResult{
		TxHash:      res.TxHash,
		PurposeHash: purposeHash.Hex(),
		RequestID:   res.RequestID,
	}

	consent, err := s.deps.Consents.Create(ctx, repository.ConsentInput{
		TxHash:      res.TxHash,
		Requester:   requester.Hex(),
		Subject:     subject.Hex(),
		PurposeHash: purposeHash.Hex(),
	})
	if err != nil {
		log.Error("consent create failed after on-chain request", logger.Drift(), logger.Err(err))
		metrics.CacheDrift.WithLabelValues("request_access").Inc()
		consentOp(op, "storage_error")
		return nil, storageFailed(op, res.TxHash, err)
	}

	if res.RequestID != "" {
		updated, err := s.deps.Consents.RecordIdentifier(ctx, res.TxHash, res.RequestID)
		if err != nil {
			// El registro existe sin requestId; el reconciliador lo reintenta.
			log.Warn("record identifier failed, left for reconciler",
				logger.ConsentRequestID(res.RequestID), logger.Drift(), logger.Err(err))
			metrics.CacheDrift.WithLabelValues("record_identifier").Inc()
		} else {
			consent = updated
		}
	} else {
		log.Warn("AccessRequested event not found in receipt, left for reconciler")
	}
	out.Consent = consent

	s.deps.Audit.Record(ctx, repository.AuditEvent{
		Type:      audit.EventAccessRequest,
		Actor:     requester.Hex(),
		Subject:   subject.Hex(),
		RequestID: res.RequestID,
		TxHash:    res.TxHash,
		Details:   map[string]any{"purposeHash": purposeHash.Hex()},
	})

	consentOp(op, "ok")
	log.Info("access requested", logger.ConsentRequestID(res.RequestID))
	return out, nil
}

// keepPending crea el registro sin requestId de una tx enviada cuya
// confirmación no llegó. Si se mina, el reconciliador lo completa; si no
// queda registro, esa solicitud on-chain no tendría espejo off-chain.
func (s *service) keepPending(ctx context.Context, log *zap.Logger, requester, subject common.Address, purposeHash common.Hash, txHash string) {
	// el ctx del request puede estar cancelado: la escritura no depende de él
	ctx = context.WithoutCancel(ctx)
	log = log.With(logger.TxHash(txHash))

	if _, err := s.deps.Consents.Create(ctx, repository.ConsentInput{
		TxHash:      txHash,
		Requester:   requester.Hex(),
		Subject:     subject.Hex(),
		PurposeHash: purposeHash.Hex(),
	}); err != nil {
		log.Error("consent create failed for unconfirmed transaction", logger.Drift(), logger.Err(err))
		metrics.CacheDrift.WithLabelValues("request_access_pending").Inc()
		return
	}
	log.Warn("transaction sent but not confirmed, left for reconciler")

	s.deps.Audit.Record(ctx, repository.AuditEvent{
		Type:    audit.EventAccessRequest,
		Actor:   requester.Hex(),
		Subject: subject.Hex(),
		TxHash:  txHash,
		Details: map[string]any{"purposeHash": purposeHash.Hex(), "confirmed": false},
	})
}

// Approve envía approve on-chain y luego marca el registro como aprobado.
// La autorización la decide el contrato; el cache solo la refleja.
func (s *service) Approve(ctx context.Context, in ApproveInput) (*ApproveResult, error) {
	const op = "Approve"
	log := s.log(ctx, op)

	if strings.TrimSpace(in.RequestID) == "" || strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Signature) == "" {
		consentOp(op, "invalid")
		return nil, missingFields(op)
	}

	requestID, err := validation.ParseRequestID(in.RequestID)
	if err != nil {
		consentOp(op, "invalid")
		return nil, invalidFormat(op, "requestId", err)
	}
	subject, err := validation.NormalizeAddress(in.Subject)
	if err != nil {
		consentOp(op, "invalid")
		return nil, invalidAddress(op, "subject", err)
	}
	signature, err := validation.ParseHexBytes(in.Signature)
	if err != nil {
		consentOp(op, "invalid")
		return nil, invalidFormat(op, "signature", err)
	}
	if len(signature) == 0 {
		consentOp(op, "invalid")
		return nil, missingFields(op, "signature")
	}
	proof, err := validation.ParseHexBytes(in.Proof)
	if err != nil {
		consentOp(op, "invalid")
		return nil, invalidFormat(op, "optionalProof", err)
	}

	canonicalID := requestID.Hex()
	log = log.With(
		logger.ConsentRequestID(canonicalID),
		logger.Subject(subject.Hex()),
		logger.String("signature", util.MaskHex(in.Signature)),
	)

	if s.deps.Registry == nil {
		consentOp(op, "chain_error")
		return nil, chainFailed(op, errChainDisabled)
	}

	start := time.Now()
	res, err := s.deps.Registry.Approve(ctx, requestID, signature, proof)
	metrics.ObserveChainCall("approve", start, err)
	if err != nil {
		log.Error("approve on-chain failed", logger.Err(err))
		consentOp(op, "chain_error")
		return nil, chainFailed(op, err)
	}
	log = log.With(logger.TxHash(res.TxHash))

	out := &ApproveResult{TxHash: res.TxHash, RequestID: canonicalID}
	if _, err := s.deps.Consents.MarkApproved(ctx, canonicalID, hexutil.Encode(signature), res.TxHash); err != nil {
		if !repository.IsNotFound(err) {
			log.Error("mark approved failed after on-chain approve", logger.Drift(), logger.Err(err))
			metrics.CacheDrift.WithLabelValues("approve").Inc()
			consentOp(op, "storage_error")
			return nil, storageFailed(op, res.TxHash, err)
		}
		// La cadena ya aprobó: el cache simplemente no tenía el registro.
		out.Drift = true
		log.Warn("approved on-chain but no cached consent", logger.Drift())
		metrics.CacheDrift.WithLabelValues("approve").Inc()
		s.deps.Audit.Record(ctx, repository.AuditEvent{
			Type:      audit.EventCacheDrift,
			Actor:     subject.Hex(),
			Subject:   subject.Hex(),
			RequestID: canonicalID,
			TxHash:    res.TxHash,
			Details:   map[string]any{"op": "approve", "reason": "no cached record"},
		})
	}

	s.deps.Audit.Record(ctx, repository.AuditEvent{
		Type:      audit.EventAccessApprove,
		Actor:     subject.Hex(),
		Subject:   subject.Hex(),
		RequestID: canonicalID,
		TxHash:    res.TxHash,
	})

	if out.Drift {
		consentOp(op, "drift")
	} else {
		consentOp(op, "ok")
	}
	log.Info("access approved")
	return out, nil
}

// ListByParticipant devuelve la dirección en forma checksum y sus registros.
func (s *service) ListByParticipant(ctx context.Context, address string) (string, []repository.Consent, error) {
	const op = "ListByParticipant"
	if strings.TrimSpace(address) == "" {
		return "", nil, missingFields(op, "address")
	}
	addr, err := validation.NormalizeAddress(address)
	if err != nil {
		return "", nil, invalidAddress(op, "address", err)
	}
	list, err := s.deps.Consents.FindByParticipant(ctx, addr.Hex())
	if err != nil {
		s.log(ctx, op).Error("find by participant failed", logger.Address(addr.Hex()), logger.Err(err))
		return "", nil, storageFailed(op, "", err)
	}
	return addr.Hex(), list, nil
}

// isFalsyJSON: ausente, null, "", false y 0 cuentan como campo faltante.
func isFalsyJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	switch string(t) {
	case "", "null", `""`, "false", "0":
		return true
	}
	return false
}

func consentOp(op, outcome string) {
	metrics.ConsentOps.WithLabelValues(op, outcome).Inc()
}
