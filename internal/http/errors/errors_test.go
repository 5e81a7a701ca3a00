package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, ErrMissingFields.WithDetail("requester"))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Missing fields", body["error"])
	require.Equal(t, "MISSING_FIELDS", body["code"])
	require.Equal(t, "requester", body["detail"])
}

func TestWriteError_GenericErrorKeepsMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, stderrors.New("insufficient funds for gas"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "insufficient funds for gas", body["error"])
	require.Equal(t, "INTERNAL_ERROR", body["code"])
	_, hasDetail := body["detail"]
	require.False(t, hasDetail)
}

func TestFromError_UnwrapsWrapped(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", ErrNotAuthorizedIssuer)
	require.Equal(t, http.StatusForbidden, FromError(wrapped).HTTPStatus)
}

func TestWithDetail_DoesNotMutateBase(t *testing.T) {
	_ = ErrInvalidAddress.WithDetail("x")
	require.Empty(t, ErrInvalidAddress.Detail)
}
