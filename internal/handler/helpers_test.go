package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gig-wallet/internal/auth"
)

var (
	worker = auth.Principal{AccountID: "worker-1", Name: "Ana Souza", Role: auth.RoleUser}
	admin  = auth.Principal{AccountID: "admin-1", Name: "Ops", Role: auth.RoleAdmin}
)

func newRequest(method, target, body string, p *auth.Principal) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if p != nil {
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), *p))
	}
	return req
}

// decode asserts the envelope shape and returns the raw data payload.
func decode(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) json.RawMessage {
	t.Helper()

	assert.Equal(t, wantStatus, rr.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	if wantCode == "" {
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Error)
	} else {
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, wantCode, resp.Error.Code)
	}
	return resp.Data
}
