package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// IdentityRegistry envuelve el contrato IdentityRegistry.
type IdentityRegistry struct {
	client   *Client
	address  common.Address
	contract *bind.BoundContract
}

func NewIdentityRegistry(c *Client, address common.Address) (*IdentityRegistry, error) {
	if address == (common.Address{}) {
		return nil, fmt.Errorf("identity registry: %w", ErrNotConfigured)
	}
	parsed, err := loadABI(abiIdentity)
	if err != nil {
		return nil, err
	}
	return &IdentityRegistry{client: c, address: address, contract: c.bindContract(address, parsed)}, nil
}

func (r *IdentityRegistry) Address() common.Address { return r.address }

// RegisterDID registra el profileHash del signer.
func (r *IdentityRegistry) RegisterDID(ctx context.Context, profileHash common.Hash) (TxResult, error) {
	receipt, err := r.client.transact(ctx, r.contract, "registerDID", [32]byte(profileHash))
	if err != nil {
		return TxResult{}, err
	}
	return txResult(receipt), nil
}

// IsRegistered consulta isRegistered(addr).
func (r *IdentityRegistry) IsRegistered(ctx context.Context, addr common.Address) (bool, error) {
	var out []any
	if err := r.contract.Call(r.client.callOpts(ctx), &out, "isRegistered", addr); err != nil {
		return false, fmt.Errorf("chain: isRegistered: %w", err)
	}
	return unpackBool(out)
}

// IsIssuer consulta hasRole(ISSUER_ROLE, addr).
func (r *IdentityRegistry) IsIssuer(ctx context.Context, addr common.Address) (bool, error) {
	var roleOut []any
	if err := r.contract.Call(r.client.callOpts(ctx), &roleOut, "ISSUER_ROLE"); err != nil {
		return false, fmt.Errorf("chain: ISSUER_ROLE: %w", err)
	}
	if len(roleOut) != 1 {
		return false, fmt.Errorf("chain: ISSUER_ROLE: unexpected outputs %d", len(roleOut))
	}
	role := *abi.ConvertType(roleOut[0], new([32]byte)).(*[32]byte)

	var out []any
	if err := r.contract.Call(r.client.callOpts(ctx), &out, "hasRole", role, addr); err != nil {
		return false, fmt.Errorf("chain: hasRole: %w", err)
	}
	return unpackBool(out)
}

func unpackBool(out []any) (bool, error) {
	if len(out) != 1 {
		return false, fmt.Errorf("chain: unexpected outputs %d", len(out))
	}
	v, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("chain: unexpected output type %T", out[0])
	}
	return v, nil
}
