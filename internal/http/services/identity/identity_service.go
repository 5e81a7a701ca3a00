// Package identity contiene el registro de DIDs y las consultas de identidad.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	"github.com/dropDatabas3/hellodid/internal/security/secretbox"
	"github.com/dropDatabas3/hellodid/internal/validation"
)

// Registry es la vista del contrato Identity que usa el service.
type Registry interface {
	RegisterDID(ctx context.Context, profileHash common.Hash) (chain.TxResult, error)
	IsRegistered(ctx context.Context, addr common.Address) (bool, error)
}

// Signer expone la cuenta que firma las transacciones del backend.
type Signer interface {
	SignerInfo(ctx context.Context) (address string, balanceEther string, err error)
}

// Service define las operaciones de identidad.
type Service interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	IsRegistered(ctx context.Context, address string) (bool, error)
	Profile(ctx context.Context, address string) (*repository.Profile, error)
	Signer(ctx context.Context) (address string, balance string, err error)
}

type RegisterInput struct {
	Address string
	Profile json.RawMessage
}

// RegisterResult: TxHash nil si registerDID falló (el perfil igual queda guardado).
type RegisterResult struct {
	Address     string
	TxHash      *string
	ProfileHash string
}

// Deps contiene las dependencias del service.
type Deps struct {
	Registry Registry
	Signer   Signer
	Profiles repository.ProfileRepository
	Box      *secretbox.Box
	Cache    cache.Client
	CacheTTL time.Duration
	Audit    *audit.Recorder
}

type service struct {
	deps Deps
}

func NewService(deps Deps) Service {
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = time.Minute
	}
	return &service{deps: deps}
}

func (s *service) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(logger.Layer("service"), logger.Component("identity"), logger.Op(op))
}

func registeredKey(addr common.Address) string { return "registered:" + addr.Hex() }

// Register cifra el perfil, lo guarda y registra su hash on-chain.
// Un fallo on-chain no es fatal: se loguea y TxHash queda nil.
func (s *service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	log := s.log(ctx, "Register")

	profile := bytes.TrimSpace(in.Profile)
	if strings.TrimSpace(in.Address) == "" || len(profile) == 0 || string(profile) == "null" {
		return nil, ErrMissingFields
	}
	addr, err := validation.NormalizeAddress(in.Address)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if s.deps.Box == nil {
		return nil, ErrCryptoDisabled
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, profile); err != nil {
		return nil, ErrInvalidProfile
	}
	sealed, err := s.deps.Box.Seal(compact.Bytes())
	if err != nil {
		return nil, fmt.Errorf("encrypt profile: %w", err)
	}
	profileHash, err := canonhash.Sum(sealed)
	if err != nil {
		return nil, fmt.Errorf("hash profile: %w", err)
	}
	log = log.With(logger.Address(addr.Hex()), logger.String("profile_hash", profileHash.Hex()))

	if _, err := s.deps.Profiles.Upsert(ctx, addr.Hex(), repository.EncryptedPayload{
		IV:         sealed.IV,
		Tag:        sealed.Tag,
		Ciphertext: sealed.Ciphertext,
	}, profileHash.Hex()); err != nil {
		log.Error("profile upsert failed", logger.Err(err))
		return nil, err
	}

	out := &RegisterResult{Address: addr.Hex(), ProfileHash: profileHash.Hex()}

	if s.deps.Registry == nil {
		log.Warn("identity contract not configured, skipping registerDID")
	} else {
		start := time.Now()
		res, err := s.deps.Registry.RegisterDID(ctx, profileHash)
		metrics.ObserveChainCall("register_did", start, err)
		if err != nil {
			log.Error("registerDID failed", logger.Err(err))
		} else {
			tx := res.TxHash
			out.TxHash = &tx
			if s.deps.Cache != nil {
				_ = s.deps.Cache.Delete(ctx, registeredKey(addr))
			}
		}
	}

	ev := repository.AuditEvent{
		Type:    audit.EventRegister,
		Actor:   addr.Hex(),
		Details: map[string]any{"profileHash": profileHash.Hex()},
	}
	if out.TxHash != nil {
		ev.TxHash = *out.TxHash
	}
	s.deps.Audit.Record(ctx, ev)

	log.Info("profile registered", logger.Bool("on_chain", out.TxHash != nil))
	return out, nil
}

// IsRegistered consulta el contrato Identity, cacheando el resultado.
func (s *service) IsRegistered(ctx context.Context, address string) (bool, error) {
	if strings.TrimSpace(address) == "" {
		return false, ErrMissingAddress
	}
	addr, err := validation.NormalizeAddress(address)
	if err != nil {
		return false, ErrInvalidAddress
	}
	if s.deps.Registry == nil {
		return false, ErrChainDisabled
	}
	return cache.Bool(ctx, s.deps.Cache, registeredKey(addr), s.deps.CacheTTL, func(ctx context.Context) (bool, error) {
		start := time.Now()
		ok, err := s.deps.Registry.IsRegistered(ctx, addr)
		metrics.ObserveChainCall("is_registered", start, err)
		return ok, err
	})
}

// Profile devuelve el perfil cifrado guardado para address.
func (s *service) Profile(ctx context.Context, address string) (*repository.Profile, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrMissingAddress
	}
	addr, err := validation.NormalizeAddress(address)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	p, err := s.deps.Profiles.Get(ctx, addr.Hex())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *service) Signer(ctx context.Context) (string, string, error) {
	if s.deps.Signer == nil {
		return "", "", ErrChainDisabled
	}
	return s.deps.Signer.SignerInfo(ctx)
}
