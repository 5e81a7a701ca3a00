package credential

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodid/internal/audit"
	"github.com/dropDatabas3/hellodid/internal/cache"
	"github.com/dropDatabas3/hellodid/internal/canonhash"
	"github.com/dropDatabas3/hellodid/internal/chain"
	"github.com/dropDatabas3/hellodid/internal/store/adapters/memory"
)

const holderLower = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"

var (
	holderCS = common.HexToAddress(holderLower)
	signer   = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
)

type fakeRegistry struct {
	issueErr  error
	nextToken int64
	owners    map[string]common.Address
	hashes    map[string]common.Hash
	revoked   []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{nextToken: 1, owners: map[string]common.Address{}, hashes: map[string]common.Hash{}}
}

func (f *fakeRegistry) Issue(_ context.Context, to common.Address, h common.Hash, _ string) (chain.IssueResult, error) {
	if f.issueErr != nil {
		return chain.IssueResult{}, f.issueErr
	}
	id := big.NewInt(f.nextToken).String()
	f.nextToken++
	f.owners[id] = to
	f.hashes[id] = h
	return chain.IssueResult{TxResult: chain.TxResult{TxHash: common.HexToHash("0xaa").Hex()}, TokenID: id}, nil
}

func (f *fakeRegistry) Revoke(_ context.Context, id *big.Int) (chain.TxResult, error) {
	f.revoked = append(f.revoked, id.String())
	return chain.TxResult{TxHash: common.HexToHash("0xbb").Hex()}, nil
}

func (f *fakeRegistry) OwnerOf(_ context.Context, id *big.Int) (common.Address, error) {
	o, ok := f.owners[id.String()]
	if !ok {
		return common.Address{}, errors.New("execution reverted: ERC721: invalid token ID")
	}
	return o, nil
}

func (f *fakeRegistry) CredentialHashOf(_ context.Context, id *big.Int) (common.Hash, error) {
	return f.hashes[id.String()], nil
}

type fakeRoles struct {
	issuer bool
	calls  int
}

func (r *fakeRoles) IsIssuer(context.Context, common.Address) (bool, error) {
	r.calls++
	return r.issuer, nil
}

func newTestService(reg *fakeRegistry, roles *fakeRoles) (Service, *memory.Connection) {
	conn := memory.New()
	return NewService(Deps{
		Registry:    reg,
		Roles:       roles,
		Issuer:      signer,
		Credentials: conn.Credentials(),
		Cache:       cache.NewMemory("test:"),
		Audit:       audit.New(conn.Audit()),
	}), conn
}

func TestIssue_PersistsCredential(t *testing.T) {
	reg, roles := newFakeRegistry(), &fakeRoles{issuer: true}
	svc, conn := newTestService(reg, roles)
	ctx := context.Background()

	payload := json.RawMessage(`{"degree":"BSc","year":2024}`)
	res, err := svc.Issue(ctx, IssueInput{To: holderLower, MetadataURI: "ipfs://cid", Payload: payload})
	require.NoError(t, err)
	require.Equal(t, "1", res.TokenID)

	want, err := canonhash.SumHex(payload)
	require.NoError(t, err)
	require.Equal(t, want, res.CredentialHash)

	rec, err := conn.Credentials().GetByTokenID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, holderCS.Hex(), rec.Holder)
	require.Equal(t, "ipfs://cid", rec.URI)

	// rol cacheado
	_, err = svc.Issue(ctx, IssueInput{To: holderLower, MetadataURI: "ipfs://cid2", Payload: payload})
	require.NoError(t, err)
	require.Equal(t, 1, roles.calls)
}

func TestIssue_Validation(t *testing.T) {
	svc, _ := newTestService(newFakeRegistry(), &fakeRoles{issuer: true})
	ctx := context.Background()

	_, err := svc.Issue(ctx, IssueInput{To: holderLower, Payload: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Issue(ctx, IssueInput{To: "0xabc", MetadataURI: "u", Payload: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, err = svc.Issue(ctx, IssueInput{To: holderLower, MetadataURI: "u", Payload: json.RawMessage(`{oops`)})
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestIssue_NotIssuer(t *testing.T) {
	reg := newFakeRegistry()
	svc, _ := newTestService(reg, &fakeRoles{issuer: false})

	_, err := svc.Issue(context.Background(), IssueInput{To: holderLower, MetadataURI: "u", Payload: json.RawMessage(`{"a":1}`)})
	require.ErrorIs(t, err, ErrNotAuthorizedIssuer)
	require.Equal(t, int64(1), reg.nextToken)
}

func TestIssue_RecipientIsContract(t *testing.T) {
	reg := newFakeRegistry()
	reg.issueErr = chain.ErrRecipientIsContract
	svc, _ := newTestService(reg, &fakeRoles{issuer: true})

	_, err := svc.Issue(context.Background(), IssueInput{To: holderLower, MetadataURI: "u", Payload: json.RawMessage(`{"a":1}`)})
	require.ErrorIs(t, err, chain.ErrRecipientIsContract)
}

func TestVerifyAndRevoke(t *testing.T) {
	reg := newFakeRegistry()
	svc, _ := newTestService(reg, &fakeRoles{issuer: true})
	ctx := context.Background()

	res, err := svc.Issue(ctx, IssueInput{To: holderLower, MetadataURI: "u", Payload: json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)

	v, err := svc.Verify(ctx, res.TokenID)
	require.NoError(t, err)
	require.Equal(t, holderCS.Hex(), v.Owner)
	require.Equal(t, res.CredentialHash, v.CredentialHash)
	require.False(t, v.Revoked)

	tx, err := svc.Revoke(ctx, "0x1")
	require.NoError(t, err)
	require.NotEmpty(t, tx)
	require.Equal(t, []string{"1"}, reg.revoked)

	v, err = svc.Verify(ctx, "1")
	require.NoError(t, err)
	require.True(t, v.Revoked)
}

func TestVerify_TokenIDParsing(t *testing.T) {
	svc, _ := newTestService(newFakeRegistry(), &fakeRoles{})
	ctx := context.Background()

	_, err := svc.Verify(ctx, " ")
	require.ErrorIs(t, err, ErrMissingTokenID)
	_, err = svc.Verify(ctx, "abc")
	require.ErrorIs(t, err, ErrInvalidTokenID)
	_, err = svc.Verify(ctx, "-3")
	require.ErrorIs(t, err, ErrInvalidTokenID)

	// token inexistente: el error del contrato sube tal cual
	_, err = svc.Verify(ctx, "42")
	require.ErrorContains(t, err, "invalid token ID")

	id, err := parseTokenID("010")
	require.NoError(t, err)
	require.Equal(t, "10", id.String())
}
