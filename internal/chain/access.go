package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RequestAccessResult: RequestID queda vacío si el receipt no trae AccessRequested.
type RequestAccessResult struct {
	TxResult
	RequestID string
}

// AccessRequested es el evento decodificado.
type AccessRequested struct {
	RequestId   [32]byte
	Requester   common.Address
	Subject     common.Address
	PurposeHash [32]byte
}

// AccessRegistry envuelve el contrato AccessControl.
type AccessRegistry struct {
	client   *Client
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewAccessRegistry liga el contrato en address.
func NewAccessRegistry(c *Client, address common.Address) (*AccessRegistry, error) {
	if address == (common.Address{}) {
		return nil, fmt.Errorf("access control: %w", ErrNotConfigured)
	}
	parsed, err := loadABI(abiAccessControl)
	if err != nil {
		return nil, err
	}
	return &AccessRegistry{
		client:   c,
		address:  address,
		abi:      parsed,
		contract: c.bindContract(address, parsed),
	}, nil
}

// Address del contrato.
func (r *AccessRegistry) Address() common.Address { return r.address }

// RequestAccess envía requestAccess(subject, purposeHash) y espera confirmación.
func (r *AccessRegistry) RequestAccess(ctx context.Context, subject common.Address, purposeHash common.Hash) (RequestAccessResult, error) {
	receipt, err := r.client.transact(ctx, r.contract, "requestAccess", subject, [32]byte(purposeHash))
	if err != nil {
		return RequestAccessResult{}, err
	}
	res := RequestAccessResult{TxResult: txResult(receipt)}
	if ev, ok := r.findAccessRequested(receipt.Logs); ok {
		res.RequestID = common.Hash(ev.RequestId).Hex()
	}
	return res, nil
}

// Approve envía approve(requestId, signature, proof) y espera confirmación.
func (r *AccessRegistry) Approve(ctx context.Context, requestID common.Hash, signature, proof []byte) (TxResult, error) {
	if proof == nil {
		proof = []byte{}
	}
	receipt, err := r.client.transact(ctx, r.contract, "approve", [32]byte(requestID), signature, proof)
	if err != nil {
		return TxResult{}, err
	}
	return txResult(receipt), nil
}

// LookupRequestID busca el AccessRequested en el receipt de txHash.
// found=false si la tx sigue pendiente o el receipt no trae el evento.
func (r *AccessRegistry) LookupRequestID(ctx context.Context, txHash common.Hash) (string, bool, error) {
	receipt, err := r.client.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("chain: receipt %s: %w", txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", false, fmt.Errorf("chain: %s: %w", txHash.Hex(), ErrReverted)
	}
	ev, ok := r.findAccessRequested(receipt.Logs)
	if !ok {
		return "", false, nil
	}
	return common.Hash(ev.RequestId).Hex(), true, nil
}

// DecodeAccessRequested decodifica un log crudo. ok=false si no es de este
// contrato o no es el evento.
func (r *AccessRegistry) DecodeAccessRequested(l types.Log) (AccessRequested, bool) {
	var ev AccessRequested
	if l.Address != r.address || len(l.Topics) == 0 {
		return ev, false
	}
	if l.Topics[0] != r.abi.Events["AccessRequested"].ID {
		return ev, false
	}
	if err := r.contract.UnpackLog(&ev, "AccessRequested", l); err != nil {
		return ev, false
	}
	return ev, true
}

func (r *AccessRegistry) findAccessRequested(logs []*types.Log) (AccessRequested, bool) {
	for _, l := range logs {
		if l == nil {
			continue
		}
		if ev, ok := r.DecodeAccessRequested(*l); ok {
			return ev, true
		}
	}
	return AccessRequested{}, false
}
