// Package credential emite, verifica y revoca credenciales (ERC-721) on-chain
// y mantiene su espejo off-chain.
package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodid/internal/audit"
	"github.com/dropDatabas3/hellodid/internal/cache"
	"github.com/dropDatabas3/hellodid/internal/canonhash"
	"github.com/dropDatabas3/hellodid/internal/chain"
	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/metrics"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
	"github.com/dropDatabas3/hellodid/internal/validation"
)

// Registry es la vista del contrato Credential.
type Registry interface {
	Issue(ctx context.Context, to common.Address, credentialHash common.Hash, uri string) (chain.IssueResult, error)
	Revoke(ctx context.Context, tokenID *big.Int) (chain.TxResult, error)
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
	CredentialHashOf(ctx context.Context, tokenID *big.Int) (common.Hash, error)
}

// RoleChecker consulta el rol ISSUER en el contrato Identity.
type RoleChecker interface {
	IsIssuer(ctx context.Context, addr common.Address) (bool, error)
}

type Service interface {
	Issue(ctx context.Context, in IssueInput) (*IssueResult, error)
	Verify(ctx context.Context, tokenID string) (*VerifyResult, error)
	Revoke(ctx context.Context, tokenID string) (string, error)
}

type IssueInput struct {
	To          string
	MetadataURI string
	Payload     json.RawMessage
}

type IssueResult struct {
	TxHash         string
	TokenID        string
	CredentialHash string
}

type VerifyResult struct {
	Owner          string
	CredentialHash string
	Revoked        bool
}

// Deps contiene las dependencias del service. Issuer es la cuenta firmante.
type Deps struct {
	Registry    Registry
	Roles       RoleChecker
	Issuer      common.Address
	Credentials repository.CredentialRepository
	Cache       cache.Client
	CacheTTL    time.Duration
	Audit       *audit.Recorder
}

type service struct {
	deps Deps
	now  func() time.Time
}

func NewService(deps Deps) Service {
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = time.Minute
	}
	return &service{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

func (s *service) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(logger.Layer("service"), logger.Component("credential"), logger.Op(op))
}

// Issue emite una credencial para to. El firmante debe tener ISSUER_ROLE.
func (s *service) Issue(ctx context.Context, in IssueInput) (*IssueResult, error) {
	log := s.log(ctx, "Issue")

	payload := bytes.TrimSpace(in.Payload)
	if strings.TrimSpace(in.To) == "" || strings.TrimSpace(in.MetadataURI) == "" || len(payload) == 0 || string(payload) == "null" {
		return nil, ErrMissingFields
	}
	to, err := validation.NormalizeAddress(in.To)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if s.deps.Registry == nil || s.deps.Roles == nil {
		return nil, ErrChainDisabled
	}

	isIssuer, err := cache.Bool(ctx, s.deps.Cache, "issuer:"+s.deps.Issuer.Hex(), s.deps.CacheTTL, func(ctx context.Context) (bool, error) {
		start := time.Now()
		ok, err := s.deps.Roles.IsIssuer(ctx, s.deps.Issuer)
		metrics.ObserveChainCall("is_issuer", start, err)
		return ok, err
	})
	if err != nil {
		log.Error("issuer role check failed", logger.Err(err))
		return nil, err
	}
	if !isIssuer {
		log.Warn("signer lacks issuer role", logger.Address(s.deps.Issuer.Hex()))
		return nil, ErrNotAuthorizedIssuer
	}

	credHash, err := canonhash.Sum(json.RawMessage(payload))
	if err != nil {
		return nil, ErrInvalidPayload
	}
	uri := strings.TrimSpace(in.MetadataURI)
	log = log.With(logger.Address(to.Hex()), logger.String("credential_hash", credHash.Hex()))

	start := time.Now()
	res, err := s.deps.Registry.Issue(ctx, to, credHash, uri)
	metrics.ObserveChainCall("issue_credential", start, err)
	if err != nil {
		if !errors.Is(err, chain.ErrRecipientIsContract) {
			log.Error("issue on-chain failed", logger.Err(err))
		}
		return nil, err
	}
	log = log.With(logger.TxHash(res.TxHash), logger.TokenID(res.TokenID))

	// La cadena es la fuente de verdad; el espejo off-chain es best-effort.
	if res.TokenID == "" {
		log.Warn("CredentialIssued event not found in receipt", logger.Drift())
		metrics.CacheDrift.WithLabelValues("issue").Inc()
	} else if err := s.deps.Credentials.Create(ctx, repository.Credential{
		TokenID:        res.TokenID,
		Holder:         to.Hex(),
		CredentialHash: credHash.Hex(),
		URI:            uri,
		TxHash:         res.TxHash,
		IssuedAt:       s.now(),
	}); err != nil {
		log.Error("credential persist failed after issue", logger.Drift(), logger.Err(err))
		metrics.CacheDrift.WithLabelValues("issue").Inc()
	}

	s.deps.Audit.Record(ctx, repository.AuditEvent{
		Type:    audit.EventIssue,
		Actor:   s.deps.Issuer.Hex(),
		Subject: to.Hex(),
		TokenID: res.TokenID,
		TxHash:  res.TxHash,
		Details: map[string]any{"credentialHash": credHash.Hex(), "uri": uri},
	})

	log.Info("credential issued")
	return &IssueResult{TxHash: res.TxHash, TokenID: res.TokenID, CredentialHash: credHash.Hex()}, nil
}

// Verify lee dueño y hash on-chain. Revoked sale del espejo off-chain.
func (s *service) Verify(ctx context.Context, tokenID string) (*VerifyResult, error) {
	log := s.log(ctx, "Verify")

	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	if s.deps.Registry == nil {
		return nil, ErrChainDisabled
	}
	log = log.With(logger.TokenID(id.String()))

	start := time.Now()
	owner, err := s.deps.Registry.OwnerOf(ctx, id)
	metrics.ObserveChainCall("owner_of", start, err)
	if err != nil {
		log.Warn("ownerOf failed", logger.Err(err))
		return nil, err
	}
	start = time.Now()
	hash, err := s.deps.Registry.CredentialHashOf(ctx, id)
	metrics.ObserveChainCall("credential_hash_of", start, err)
	if err != nil {
		log.Warn("credentialHashOf failed", logger.Err(err))
		return nil, err
	}

	out := &VerifyResult{Owner: owner.Hex(), CredentialHash: hash.Hex()}
	if rec, err := s.deps.Credentials.GetByTokenID(ctx, id.String()); err == nil {
		out.Revoked = rec.RevokedAt != nil
	} else if !repository.IsNotFound(err) {
		log.Warn("credential lookup failed", logger.Err(err))
	}

	s.deps.Audit.Record(ctx, repository.AuditEvent{
		Type:    audit.EventVerify,
		Actor:   owner.Hex(),
		TokenID: id.String(),
		Details: map[string]any{"credentialHash": out.CredentialHash},
	})
	return out, nil
}

// Revoke revoca on-chain y marca el espejo off-chain.
func (s *service) Revoke(ctx context.Context, tokenID string) (string, error) {
	log := s.log(ctx, "Revoke")

	id, err := parseTokenID(tokenID)
	if err != nil {
		return "", err
	}
	if s.deps.Registry == nil {
		return "", ErrChainDisabled
	}
	log = log.With(logger.TokenID(id.String()))

	start := time.Now()
	res, err := s.deps.Registry.Revoke(ctx, id)
	metrics.ObserveChainCall("revoke_credential", start, err)
	if err != nil {
		log.Error("revoke on-chain failed", logger.Err(err))
		return "", err
	}

	if err := s.deps.Credentials.MarkRevoked(ctx, id.String(), s.now()); err != nil {
		log.Warn("mark revoked failed", logger.TxHash(res.TxHash), logger.Drift(), logger.Err(err))
		metrics.CacheDrift.WithLabelValues("revoke").Inc()
	}

	s.deps.Audit.Record(ctx, repository.AuditEvent{
		Type:    audit.EventRevoke,
		Actor:   s.deps.Issuer.Hex(),
		TokenID: id.String(),
		TxHash:  res.TxHash,
	})
	log.Info("credential revoked", logger.TxHash(res.TxHash))
	return res.TxHash, nil
}

// parseTokenID acepta decimal o 0x-hex, no negativo.
func parseTokenID(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrMissingTokenID
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	id, ok := new(big.Int).SetString(s, base)
	if !ok || id.Sign() < 0 {
		return nil, ErrInvalidTokenID
	}
	return id, nil
}
