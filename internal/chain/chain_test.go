package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	accessAddr     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	identityAddr   = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	credentialAddr = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	subjectAddr    = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
)

func newTestClient(t *testing.T) (*Client, *fakeBackend) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	fb := newFakeBackend()
	fb.code[accessAddr] = []byte{0x60, 0x80}
	fb.code[identityAddr] = []byte{0x60, 0x80}
	fb.code[credentialAddr] = []byte{0x60, 0x80}
	return NewClient(fb, key, fb.chainID, 5*time.Second), fb
}

func TestFormatEther(t *testing.T) {
	oneEth, _ := new(big.Int).SetString("1000000000000000000", 10)
	half, _ := new(big.Int).SetString("500000000000000000", 10)
	big1, _ := new(big.Int).SetString("12345000000000000000000", 10)

	require.Equal(t, "0.0", FormatEther(nil))
	require.Equal(t, "0.0", FormatEther(big.NewInt(0)))
	require.Equal(t, "1.0", FormatEther(oneEth))
	require.Equal(t, "0.5", FormatEther(half))
	require.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
	require.Equal(t, "12345.0", FormatEther(big1))
	require.Equal(t, "-0.5", FormatEther(new(big.Int).Neg(half)))
}

func TestParsePrivateKey(t *testing.T) {
	const hexKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	k1, err := ParsePrivateKey(hexKey)
	require.NoError(t, err)
	k2, err := ParsePrivateKey("0x" + hexKey)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(k1.PublicKey), crypto.PubkeyToAddress(k2.PublicKey))

	_, err = ParsePrivateKey("")
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
	_, err = ParsePrivateKey("0x1234")
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
	_, err = ParsePrivateKey("zz" + hexKey[2:])
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestEmbeddedABIsParse(t *testing.T) {
	for _, name := range []string{abiAccessControl, abiIdentity, abiCredential} {
		parsed, err := loadABI(name)
		require.NoError(t, err, name)
		require.NotEmpty(t, parsed.Methods, name)
	}
	access, _ := loadABI(abiAccessControl)
	require.Contains(t, access.Methods, "requestAccess")
	require.Contains(t, access.Methods, "approve")
	require.Contains(t, access.Events, "AccessRequested")
}

func TestNewRegistry_RequiresAddress(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := NewAccessRegistry(c, common.Address{})
	require.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewIdentityRegistry(c, common.Address{})
	require.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewCredentialRegistry(c, common.Address{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestRequestAccess_ExtractsRequestID(t *testing.T) {
	c, fb := newTestClient(t)
	reg, err := NewAccessRegistry(c, accessAddr)
	require.NoError(t, err)

	requestID := common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	purpose := common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")

	fb.onSend = func(tx *types.Transaction) *types.Receipt {
		l := eventLog(reg.abi, accessAddr, "AccessRequested",
			[]common.Hash{requestID, common.BytesToHash(c.From().Bytes()), common.BytesToHash(subjectAddr.Bytes())},
			[32]byte(purpose))
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, Logs: []*types.Log{l}, BlockNumber: big.NewInt(4242)}
	}

	res, err := reg.RequestAccess(context.Background(), subjectAddr, purpose)
	require.NoError(t, err)
	require.Equal(t, requestID.Hex(), res.RequestID)
	require.Equal(t, uint64(4242), res.BlockNumber)
	require.NotEmpty(t, res.TxHash)

	// calldata = selector + subject + purpose
	data := fb.lastCallData()
	require.Equal(t, reg.abi.Methods["requestAccess"].ID, data[:4])
	args, err := reg.abi.Methods["requestAccess"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Equal(t, subjectAddr, args[0])
	require.Equal(t, [32]byte(purpose), args[1])

	// el mismo tx hash se puede resolver después
	id, found, err := reg.LookupRequestID(context.Background(), common.HexToHash(res.TxHash))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, requestID.Hex(), id)
}

func TestRequestAccess_IgnoresForeignLogs(t *testing.T) {
	c, fb := newTestClient(t)
	reg, err := NewAccessRegistry(c, accessAddr)
	require.NoError(t, err)

	fb.onSend = func(tx *types.Transaction) *types.Receipt {
		// mismo evento pero emitido por otro contrato
		l := eventLog(reg.abi, identityAddr, "AccessRequested",
			[]common.Hash{common.HexToHash("0x01"), common.BytesToHash(c.From().Bytes()), common.BytesToHash(subjectAddr.Bytes())},
			[32]byte{})
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, Logs: []*types.Log{l}}
	}

	res, err := reg.RequestAccess(context.Background(), subjectAddr, common.Hash{})
	require.NoError(t, err)
	require.Empty(t, res.RequestID)
	require.NotEmpty(t, res.TxHash)
}

func TestRequestAccess_Reverted(t *testing.T) {
	c, fb := newTestClient(t)
	reg, err := NewAccessRegistry(c, accessAddr)
	require.NoError(t, err)

	fb.onSend = func(tx *types.Transaction) *types.Receipt {
		return &types.Receipt{Status: types.ReceiptStatusFailed}
	}
	_, err = reg.RequestAccess(context.Background(), subjectAddr, common.Hash{})
	require.ErrorIs(t, err, ErrReverted)
}

func TestRequestAccess_ConfirmTimeoutReturnsTxHash(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	fb := newFakeBackend()
	fb.code[accessAddr] = []byte{0x60, 0x80}
	fb.holdReceipts = true
	c := NewClient(fb, key, fb.chainID, 200*time.Millisecond)
	reg, err := NewAccessRegistry(c, accessAddr)
	require.NoError(t, err)

	requestID := common.HexToHash("0x3333333333333333333333333333333333333333333333333333333333333333")
	fb.onSend = func(tx *types.Transaction) *types.Receipt {
		l := eventLog(reg.abi, accessAddr, "AccessRequested",
			[]common.Hash{requestID, common.BytesToHash(c.From().Bytes()), common.BytesToHash(subjectAddr.Bytes())},
			[32]byte{})
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, Logs: []*types.Log{l}}
	}

	_, err = reg.RequestAccess(context.Background(), subjectAddr, common.Hash{})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	txHash, ok := PendingTxHash(err)
	require.True(t, ok)
	require.Len(t, fb.sent, 1)
	require.Equal(t, fb.sent[0].Hash().Hex(), txHash)

	// todavía sin minar
	_, found, err := reg.LookupRequestID(context.Background(), common.HexToHash(txHash))
	require.NoError(t, err)
	require.False(t, found)

	// una vez minada, el receipt se puede releer por hash
	fb.mine()
	id, found, err := reg.LookupRequestID(context.Background(), common.HexToHash(txHash))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, requestID.Hex(), id)
}

func TestRequestAccess_CancelledWaitReturnsTxHash(t *testing.T) {
	c, fb := newTestClient(t)
	fb.holdReceipts = true
	reg, err := NewAccessRegistry(c, accessAddr)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = reg.RequestAccess(ctx, subjectAddr, common.Hash{})
	require.Error(t, err)
	txHash, ok := PendingTxHash(err)
	require.True(t, ok)
	require.NotEmpty(t, txHash)
}

func TestPendingTxHash_OtherErrors(t *testing.T) {
	_, ok := PendingTxHash(ErrReverted)
	require.False(t, ok)
	_, ok = PendingTxHash(nil)
	require.False(t, ok)
}

func TestRequestAccess_SendFailure(t *testing.T) {
	c, fb := newTestClient(t)
	reg, err := NewAccessRegistry(c, accessAddr)
	require.NoError(t, err)

	fb.sendErr = errors.New("insufficient funds for gas")
	_, err = reg.RequestAccess(context.Background(), subjectAddr, common.Hash{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient funds")
}

func TestApprove_PacksArguments(t *testing.T) {
	c, fb := newTestClient(t)
	reg, err := NewAccessRegistry(c, accessAddr)
	require.NoError(t, err)

	requestID := common.HexToHash("0xabcdef")
	res, err := reg.Approve(context.Background(), requestID, []byte{0xde, 0xad}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.TxHash)

	data := fb.lastCallData()
	args, err := reg.abi.Methods["approve"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Equal(t, [32]byte(requestID), args[0])
	require.Equal(t, []byte{0xde, 0xad}, args[1])
	require.Equal(t, []byte{}, args[2])
}

func TestLookupRequestID_Pending(t *testing.T) {
	c, _ := newTestClient(t)
	reg, err := NewAccessRegistry(c, accessAddr)
	require.NoError(t, err)

	id, found, err := reg.LookupRequestID(context.Background(), common.HexToHash("0x99"))
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, id)
}

func TestIdentity_Reads(t *testing.T) {
	c, fb := newTestClient(t)
	reg, err := NewIdentityRegistry(c, identityAddr)
	require.NoError(t, err)

	parsed, err := loadABI(abiIdentity)
	require.NoError(t, err)
	fb.setCall(parsed, "isRegistered", true)
	fb.setCall(parsed, "ISSUER_ROLE", [32]byte(crypto.Keccak256Hash([]byte("ISSUER_ROLE"))))
	fb.setCall(parsed, "hasRole", false)

	ok, err := reg.IsRegistered(context.Background(), subjectAddr)
	require.NoError(t, err)
	require.True(t, ok)

	issuer, err := reg.IsIssuer(context.Background(), subjectAddr)
	require.NoError(t, err)
	require.False(t, issuer)
}

func TestCredential_IssueToWallet(t *testing.T) {
	c, fb := newTestClient(t)
	reg, err := NewCredentialRegistry(c, credentialAddr)
	require.NoError(t, err)

	hash := common.HexToHash("0x3333")
	fb.onSend = func(tx *types.Transaction) *types.Receipt {
		l := eventLog(reg.abi, credentialAddr, "CredentialIssued",
			[]common.Hash{common.BigToHash(big.NewInt(7)), common.BytesToHash(subjectAddr.Bytes())},
			[32]byte(hash), "ipfs://cred")
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, Logs: []*types.Log{l}}
	}

	res, err := reg.Issue(context.Background(), subjectAddr, hash, "ipfs://cred")
	require.NoError(t, err)
	require.Equal(t, "7", res.TokenID)
}

func TestCredential_RefusesContractRecipient(t *testing.T) {
	c, fb := newTestClient(t)
	reg, err := NewCredentialRegistry(c, credentialAddr)
	require.NoError(t, err)

	_, err = reg.Issue(context.Background(), identityAddr, common.Hash{}, "")
	require.ErrorIs(t, err, ErrRecipientIsContract)
	require.Empty(t, fb.sent)
}

func TestCredential_Reads(t *testing.T) {
	c, fb := newTestClient(t)
	reg, err := NewCredentialRegistry(c, credentialAddr)
	require.NoError(t, err)

	fb.setCall(reg.abi, "ownerOf", subjectAddr)
	fb.setCall(reg.abi, "credentialHashOf", [32]byte(common.HexToHash("0x44")))

	owner, err := reg.OwnerOf(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, subjectAddr, owner)

	h, err := reg.CredentialHashOf(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x44"), h)
}

func TestSignerInfo(t *testing.T) {
	c, fb := newTestClient(t)
	fb.balance, _ = new(big.Int).SetString("1500000000000000000", 10)

	addr, bal, err := c.SignerInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, c.From().Hex(), addr)
	require.Equal(t, "1.5", bal)
}

func TestIsWallet(t *testing.T) {
	c, _ := newTestClient(t)
	ok, err := c.IsWallet(context.Background(), subjectAddr)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.IsWallet(context.Background(), accessAddr)
	require.NoError(t, err)
	require.False(t, ok)
}
