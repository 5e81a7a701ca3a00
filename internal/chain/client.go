// Package chain es el adaptador tipado hacia los contratos Ethereum.
//
// Todo valor sin tipo (resultados de Call, logs de receipts) se traduce acá a
// structs explícitos; nada fuera de este paquete inspecciona resultados de ABI.
// El Client se construye explícitamente y se pasa por inyección: no hay
// provider ni signer globales.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend es el subconjunto de ethclient.Client que usa el adaptador.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Config configura la conexión al nodo y el signer.
type Config struct {
	RPCURL     string
	PrivateKey string

	// ConfirmTimeout acota la espera de minado. 0 = sin límite (solo el ctx del caller).
	ConfirmTimeout time.Duration
}

// TxResult es el resultado de una transacción confirmada.
type TxResult struct {
	TxHash      string
	BlockNumber uint64
}

// Client firma y envía transacciones con una única cuenta.
type Client struct {
	backend        Backend
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	confirmTimeout time.Duration
	closeFn        func()

	// sendMu serializa solo el envío (nonce pendiente + broadcast), nunca la
	// espera de confirmación.
	sendMu sync.Mutex
}

// Dial conecta al RPC, resuelve el chain id y prepara el signer.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, fmt.Errorf("chain: rpc url required")
	}
	key, err := ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	ec, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial: %w", err)
	}
	chainID, err := ec.ChainID(ctx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("chain: chain id: %w", err)
	}

	c := NewClient(ec, key, chainID, cfg.ConfirmTimeout)
	c.closeFn = ec.Close
	return c, nil
}

// NewClient arma un Client sobre un backend ya conectado (tests, simulated backend).
func NewClient(backend Backend, key *ecdsa.PrivateKey, chainID *big.Int, confirmTimeout time.Duration) *Client {
	return &Client{
		backend:        backend,
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:        chainID,
		confirmTimeout: confirmTimeout,
	}
}

// ParsePrivateKey acepta la clave con o sin prefijo 0x.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 64 {
		return nil, ErrInvalidPrivateKey
	}
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return key, nil
}

// Close libera la conexión RPC (si la abrió Dial).
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Backend expone el backend subyacente.
func (c *Client) Backend() Backend { return c.backend }

// From es la dirección del signer.
func (c *Client) From() common.Address { return c.from }

// ChainID es el id de la red a la que se conectó el cliente.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// Ping verifica que el nodo responda con el mismo chain id.
func (c *Client) Ping(ctx context.Context) error {
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain: ping: %w", err)
	}
	if id.Cmp(c.chainID) != 0 {
		return fmt.Errorf("chain: ping: chain id changed %s -> %s", c.chainID, id)
	}
	return nil
}

// SignerInfo devuelve la dirección del signer y su balance formateado en ether.
func (c *Client) SignerInfo(ctx context.Context) (address string, balanceEther string, err error) {
	bal, err := c.backend.BalanceAt(ctx, c.from, nil)
	if err != nil {
		return "", "", fmt.Errorf("chain: balance: %w", err)
	}
	return c.from.Hex(), FormatEther(bal), nil
}

// IsWallet reporta si no hay código desplegado en la dirección (EOA).
func (c *Client) IsWallet(ctx context.Context, addr common.Address) (bool, error) {
	code, err := c.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("chain: code at %s: %w", addr.Hex(), err)
	}
	return len(code) == 0, nil
}

func (c *Client) bindContract(address common.Address, parsed abi.ABI) *bind.BoundContract {
	return bind.NewBoundContract(address, parsed, c.backend, c.backend, c.backend)
}

// transact envía method y espera el receipt. Un receipt con status 0 es ErrReverted.
func (c *Client) transact(ctx context.Context, contract *bind.BoundContract, method string, args ...any) (*types.Receipt, error) {
	tx, err := c.submit(ctx, contract, method, args...)
	if err != nil {
		return nil, err
	}

	waitCtx := ctx
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}
	receipt, err := bind.WaitMined(waitCtx, c.backend, tx)
	if err != nil {
		// la tx ya salió: el caller necesita el hash para no perderle el rastro
		return nil, &PendingError{Method: method, TxHash: tx.Hash().Hex(), Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("chain: %s: %s: %w", method, tx.Hash().Hex(), ErrReverted)
	}
	return receipt, nil
}

func (c *Client) submit(ctx context.Context, contract *bind.BoundContract, method string, args ...any) (*types.Transaction, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("chain: transactor: %w", err)
	}
	opts.Context = ctx

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	tx, err := contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: %s: %w", method, err)
	}
	return tx, nil
}

func (c *Client) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: c.from}
}

func txResult(r *types.Receipt) TxResult {
	res := TxResult{TxHash: r.TxHash.Hex()}
	if r.BlockNumber != nil {
		res.BlockNumber = r.BlockNumber.Uint64()
	}
	return res
}
