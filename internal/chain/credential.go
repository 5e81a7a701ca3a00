package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// IssueResult: TokenID en decimal, vacío si el receipt no trae CredentialIssued.
type IssueResult struct {
	TxResult
	TokenID string
}

// CredentialIssued es el evento decodificado.
type CredentialIssued struct {
	TokenId        *big.Int
	To             common.Address
	CredentialHash [32]byte
	Uri            string
}

// CredentialRegistry envuelve el contrato de credenciales (ERC-721 soulbound).
type CredentialRegistry struct {
	client   *Client
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

func NewCredentialRegistry(c *Client, address common.Address) (*CredentialRegistry, error) {
	if address == (common.Address{}) {
		return nil, fmt.Errorf("credential registry: %w", ErrNotConfigured)
	}
	parsed, err := loadABI(abiCredential)
	if err != nil {
		return nil, err
	}
	return &CredentialRegistry{client: c, address: address, abi: parsed, contract: c.bindContract(address, parsed)}, nil
}

func (r *CredentialRegistry) Address() common.Address { return r.address }

// Issue emite una credencial a "to". Los contratos como destino se rechazan
// antes de enviar nada.
func (r *CredentialRegistry) Issue(ctx context.Context, to common.Address, credentialHash common.Hash, uri string) (IssueResult, error) {
	wallet, err := r.client.IsWallet(ctx, to)
	if err != nil {
		return IssueResult{}, err
	}
	if !wallet {
		return IssueResult{}, ErrRecipientIsContract
	}

	receipt, err := r.client.transact(ctx, r.contract, "issue", to, [32]byte(credentialHash), uri)
	if err != nil {
		return IssueResult{}, err
	}
	res := IssueResult{TxResult: txResult(receipt)}
	for _, l := range receipt.Logs {
		if l == nil {
			continue
		}
		if ev, ok := r.DecodeCredentialIssued(*l); ok {
			res.TokenID = ev.TokenId.String()
			break
		}
	}
	return res, nil
}

// Revoke quema el token.
func (r *CredentialRegistry) Revoke(ctx context.Context, tokenID *big.Int) (TxResult, error) {
	receipt, err := r.client.transact(ctx, r.contract, "revoke", tokenID)
	if err != nil {
		return TxResult{}, err
	}
	return txResult(receipt), nil
}

// OwnerOf devuelve el holder del token.
func (r *CredentialRegistry) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	var out []any
	if err := r.contract.Call(r.client.callOpts(ctx), &out, "ownerOf", tokenID); err != nil {
		return common.Address{}, fmt.Errorf("chain: ownerOf: %w", err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("chain: ownerOf: unexpected outputs %d", len(out))
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// CredentialHashOf devuelve el hash anclado al token.
func (r *CredentialRegistry) CredentialHashOf(ctx context.Context, tokenID *big.Int) (common.Hash, error) {
	var out []any
	if err := r.contract.Call(r.client.callOpts(ctx), &out, "credentialHashOf", tokenID); err != nil {
		return common.Hash{}, fmt.Errorf("chain: credentialHashOf: %w", err)
	}
	if len(out) != 1 {
		return common.Hash{}, fmt.Errorf("chain: credentialHashOf: unexpected outputs %d", len(out))
	}
	return common.Hash(*abi.ConvertType(out[0], new([32]byte)).(*[32]byte)), nil
}

func (r *CredentialRegistry) DecodeCredentialIssued(l types.Log) (CredentialIssued, bool) {
	var ev CredentialIssued
	if l.Address != r.address || len(l.Topics) == 0 {
		return ev, false
	}
	if l.Topics[0] != r.abi.Events["CredentialIssued"].ID {
		return ev, false
	}
	if err := r.contract.UnpackLog(&ev, "CredentialIssued", l); err != nil {
		return ev, false
	}
	return ev, true
}
