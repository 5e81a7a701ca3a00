package access

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodid/internal/canonhash"
	"github.com/dropDatabas3/hellodid/internal/chain"
	dto "github.com/dropDatabas3/hellodid/internal/http/dto/access"
	svc "github.com/dropDatabas3/hellodid/internal/http/services/access"
	"github.com/dropDatabas3/hellodid/internal/store/adapters/memory"
)

const (
	requester = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	subject   = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
	subjectCS = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

type stubRegistry struct {
	calls int
	err   error
}

func (s *stubRegistry) RequestAccess(_ context.Context, _ common.Address, _ common.Hash) (chain.RequestAccessResult, error) {
	s.calls++
	if s.err != nil {
		return chain.RequestAccessResult{}, s.err
	}
	return chain.RequestAccessResult{
		TxResult:  chain.TxResult{TxHash: common.HexToHash(fmt.Sprintf("0x%x", 0x100+s.calls)).Hex()},
		RequestID: common.HexToHash(fmt.Sprintf("0x%x", 0x200+s.calls)).Hex(),
	}, nil
}

func (s *stubRegistry) Approve(context.Context, common.Hash, []byte, []byte) (chain.TxResult, error) {
	s.calls++
	if s.err != nil {
		return chain.TxResult{}, s.err
	}
	return chain.TxResult{TxHash: common.HexToHash("0xa11").Hex()}, nil
}

func (s *stubRegistry) LookupRequestID(context.Context, common.Hash) (string, bool, error) {
	return "", false, nil
}

func newRouter(reg *stubRegistry) http.Handler {
	ctrl := NewConsentController(svc.NewService(svc.Deps{Registry: reg, Consents: memory.New().Consents()}))
	r := chi.NewRouter()
	r.Post("/requestAccess", ctrl.RequestAccess)
	r.Post("/consent", ctrl.Consent)
	r.Get("/consents/{address}", ctrl.ListByParticipant)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return rr, out
}

func TestRequestAccess_OK(t *testing.T) {
	reg := &stubRegistry{}
	h := newRouter(reg)

	rr, out := do(t, h, http.MethodPost, "/requestAccess",
		`{"requester":"`+requester+`","subject":"`+subject+`","purpose":{"reason":"KYC"}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, out["ok"])
	require.NotEmpty(t, out["txHash"])
	require.NotEmpty(t, out["requestId"])

	want, err := canonhash.SumHex(json.RawMessage(`{"reason":"KYC"}`))
	require.NoError(t, err)
	require.Equal(t, want, out["purposeHash"])
}

func TestRequestAccess_MissingFields(t *testing.T) {
	reg := &stubRegistry{}
	h := newRouter(reg)

	rr, out := do(t, h, http.MethodPost, "/requestAccess", `{"requester":"`+requester+`","subject":"`+subject+`"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing fields", out["error"])
	require.Equal(t, "MISSING_FIELDS", out["code"])
	require.Zero(t, reg.calls)
}

func TestRequestAccess_InvalidAddress(t *testing.T) {
	reg := &stubRegistry{}
	h := newRouter(reg)

	rr, out := do(t, h, http.MethodPost, "/requestAccess", `{"requester":"0x1234","subject":"`+subject+`","purpose":{"reason":"KYC"}}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Invalid Ethereum address format", out["error"])
	require.Zero(t, reg.calls)
}

func TestRequestAccess_ChainErrorIsRaw500(t *testing.T) {
	reg := &stubRegistry{err: errors.New("insufficient funds for gas * price + value")}
	h := newRouter(reg)

	rr, out := do(t, h, http.MethodPost, "/requestAccess",
		`{"requester":"`+requester+`","subject":"`+subject+`","purpose":{"reason":"KYC"}}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "insufficient funds for gas * price + value", out["error"])
	require.Equal(t, "CHAIN_CALL_FAILED", out["code"])
	require.NotContains(t, out, "detail")
}

func TestRequestAccess_UnconfirmedTxReportsHash(t *testing.T) {
	tx := common.HexToHash("0x77").Hex()
	reg := &stubRegistry{err: &chain.PendingError{Method: "requestAccess", TxHash: tx, Err: context.DeadlineExceeded}}
	conn := memory.New()
	ctrl := NewConsentController(svc.NewService(svc.Deps{Registry: reg, Consents: conn.Consents()}))
	r := chi.NewRouter()
	r.Post("/requestAccess", ctrl.RequestAccess)

	rr, out := do(t, r, http.MethodPost, "/requestAccess",
		`{"requester":"`+requester+`","subject":"`+subject+`","purpose":{"reason":"KYC"}}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "CHAIN_CALL_FAILED", out["code"])
	require.Contains(t, out["detail"], tx)

	// el registro queda para el reconciliador
	list, err := conn.Consents().FindByParticipant(context.Background(), subjectCS)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, tx, list[0].TxHash)
}

func TestRequestAccess_BadJSON(t *testing.T) {
	h := newRouter(&stubRegistry{})
	rr, out := do(t, h, http.MethodPost, "/requestAccess", `{"requester":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "INVALID_JSON", out["code"])
}

func TestConsent_EmptySignatureNeverReachesChain(t *testing.T) {
	reg := &stubRegistry{}
	h := newRouter(reg)

	body := `{"requestId":"` + common.HexToHash("0x201").Hex() + `","subject":"` + subject + `","signature":""}`
	rr, out := do(t, h, http.MethodPost, "/consent", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Missing fields", out["error"])
	require.Zero(t, reg.calls)
}

func TestConsent_FullFlow(t *testing.T) {
	reg := &stubRegistry{}
	h := newRouter(reg)

	_, out := do(t, h, http.MethodPost, "/requestAccess",
		`{"requester":"`+requester+`","subject":"`+subject+`","purpose":{"reason":"KYC"}}`)
	requestID := out["requestId"].(string)

	rr, out := do(t, h, http.MethodPost, "/consent",
		`{"requestId":"`+requestID+`","subject":"`+subject+`","signature":"0xabcdef","optionalProof":"0x01"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, out["ok"])
	require.Equal(t, common.HexToHash("0xa11").Hex(), out["txHash"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/consents/"+subject, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var list dto.ConsentListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Equal(t, subjectCS, list.Address)
	require.Len(t, list.Consents, 1)
	require.True(t, list.Consents[0].Approved)
	require.NotNil(t, list.Consents[0].Signature)
	require.Equal(t, "0xabcdef", *list.Consents[0].Signature)
}

func TestConsent_InvalidRequestID(t *testing.T) {
	reg := &stubRegistry{}
	h := newRouter(reg)

	rr, out := do(t, h, http.MethodPost, "/consent", `{"requestId":"0x12","subject":"`+subject+`","signature":"0x01"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "INVALID_FORMAT", out["code"])
	require.Zero(t, reg.calls)
}

func TestListByParticipant_InvalidAddress(t *testing.T) {
	h := newRouter(&stubRegistry{})
	rr, out := do(t, h, http.MethodGet, "/consents/0xnope", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Invalid Ethereum address format", out["error"])
}
