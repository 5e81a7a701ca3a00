package chain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeBackend simula lo mínimo de un nodo: nonce, envío y receipts inmediatos.
type fakeBackend struct {
	mu       sync.Mutex
	chainID  *big.Int
	code     map[common.Address][]byte
	balance  *big.Int
	nonce    uint64
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt

	// onSend arma el receipt de cada tx enviada. nil = receipt exitoso sin logs.
	onSend func(tx *types.Transaction) *types.Receipt
	// calls responde eth_call por selector.
	calls   map[[4]byte][]byte
	sendErr error

	// holdReceipts simula un nodo que acepta la tx pero no la mina todavía.
	holdReceipts bool
	held         map[common.Hash]*types.Receipt
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(11155111),
		code:     map[common.Address][]byte{},
		balance:  big.NewInt(0),
		receipts: map[common.Hash]*types.Receipt{},
		calls:    map[[4]byte][]byte{},
		held:     map[common.Hash]*types.Receipt{},
	}
}

func (f *fakeBackend) setCall(parsed abi.ABI, method string, values ...any) {
	out, err := parsed.Methods[method].Outputs.Pack(values...)
	if err != nil {
		panic(err)
	}
	var sel [4]byte
	copy(sel[:], parsed.Methods[method].ID)
	f.calls[sel] = out
}

func (f *fakeBackend) CodeAt(_ context.Context, a common.Address, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code[a], nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, errors.New("short call data")
	}
	var sel [4]byte
	copy(sel[:], msg.Data[:4])
	out, ok := f.calls[sel]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (f *fakeBackend) PendingCodeAt(ctx context.Context, a common.Address) ([]byte, error) {
	return f.CodeAt(ctx, a, nil)
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonce++
	f.sent = append(f.sent, tx)

	var r *types.Receipt
	if f.onSend != nil {
		r = f.onSend(tx)
	}
	if r == nil {
		r = &types.Receipt{Status: types.ReceiptStatusSuccessful}
	}
	r.TxHash = tx.Hash()
	if r.BlockNumber == nil {
		r.BlockNumber = big.NewInt(101)
	}
	if f.holdReceipts {
		f.held[tx.Hash()] = r
		return nil
	}
	f.receipts[tx.Hash()] = r
	return nil
}

// mine publica los receipts retenidos.
func (f *fakeBackend) mine() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, r := range f.held {
		f.receipts[h] = r
	}
	f.held = map[common.Hash]*types.Receipt{}
}

func (f *fakeBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (f *fakeBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not supported")
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, h common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[h]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeBackend) lastCallData() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return bytes.Clone(f.sent[len(f.sent)-1].Data())
}

// eventLog arma un log con los campos indexed como topics y el resto ABI-encoded.
func eventLog(parsed abi.ABI, contract common.Address, event string, topics []common.Hash, data ...any) *types.Log {
	ev := parsed.Events[event]
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		panic(err)
	}
	return &types.Log{
		Address: contract,
		Topics:  append([]common.Hash{ev.ID}, topics...),
		Data:    packed,
	}
}
