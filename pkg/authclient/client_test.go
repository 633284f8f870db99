package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["code"] != "good-code" || req["clientId"] != "app-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "at-1", TokenType: "Bearer"})
	})
	mux.HandleFunc("/oauth/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(UserInfo{OpenID: "open-1", Name: "Jane", Email: "jane@example.com", LoginMethod: "google"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ExchangeAndUserInfo(t *testing.T) {
	srv := newProvider(t)
	c := NewClient(srv.URL+"/", "app-1")
	ctx := context.Background()

	tok, err := c.ExchangeCode(ctx, "good-code", "https://shop.example/api/oauth/callback")
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)

	info, err := c.GetUserInfo(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "open-1", info.OpenID)
	assert.Equal(t, "google", info.LoginMethod)
}

func TestClient_ExchangeCode_Rejected(t *testing.T) {
	srv := newProvider(t)
	c := NewClient(srv.URL, "app-1")

	_, err := c.ExchangeCode(context.Background(), "bad-code", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
