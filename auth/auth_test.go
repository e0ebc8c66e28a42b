package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"token123","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetTokenAndAuthorize(t *testing.T) {
	var hits int32
	server := tokenServer(t, &hits)

	client := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})
	token, err := client.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token123", token)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, client.Authorize(context.Background(), req))
	assert.Equal(t, "Bearer token123", req.Header.Get("Authorization"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "token should be cached")

	_, err = client.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestNewDisabled(t *testing.T) {
	a := New(Conf{})
	assert.IsType(t, None{}, a)
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, a.Authorize(context.Background(), req))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestAuthorizeTokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()
	a := New(Conf{ClientID: "id", TokenURL: srv.URL})
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	assert.ErrorContains(t, a.Authorize(context.Background(), req), "failed to get token")
}
