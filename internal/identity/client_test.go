package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeIdentityServer is an in-memory account-management API.
func fakeIdentityServer(t *testing.T) (*httptest.Server, map[string]*Account) {
	t.Helper()
	accounts := make(map[string]*Account)

	mux := chi.NewRouter()
	mux.Post("/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "password required"})
			return
		}
		account := &Account{ID: uuid.New().String(), Email: req.Email}
		accounts[account.ID] = account
		json.NewEncoder(w).Encode(account)
	})
	mux.Get("/v1/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		account, ok := accounts[chi.URLParam(r, "id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "account not found"})
			return
		}
		json.NewEncoder(w).Encode(account)
	})
	mux.Patch("/v1/accounts/{id}/claims", func(w http.ResponseWriter, r *http.Request) {
		account, ok := accounts[chi.URLParam(r, "id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "account not found"})
			return
		}
		var req struct {
			CustomClaims map[string]any `json:"custom_claims"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		account.CustomClaims = req.CustomClaims
		w.WriteHeader(http.StatusOK)
	})
	mux.Patch("/v1/accounts/{id}/password", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := accounts[chi.URLParam(r, "id")]; !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "account not found"})
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, accounts
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(&Credentials{APIKey: "key", Endpoint: srv.URL}, srv.Client())
}

func TestClient_CreateAccountThenAdminClaim(t *testing.T) {
	srv, _ := fakeIdentityServer(t)
	client := newTestClient(srv)
	ctx := context.Background()

	account, err := client.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)
	require.NotEmpty(t, account.ID)

	require.NoError(t, client.SetAdminClaim(ctx, account.ID))

	fetched, err := client.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", fetched.Email)
	require.Equal(t, true, fetched.CustomClaims["admin"])
}

func TestClient_GetAccount_NotFound(t *testing.T) {
	srv, _ := fakeIdentityServer(t)
	client := newTestClient(srv)

	_, err := client.GetAccount(context.Background(), "missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "account not found")
}

func TestClient_UpdatePassword(t *testing.T) {
	srv, _ := fakeIdentityServer(t)
	client := newTestClient(srv)
	ctx := context.Background()

	account, err := client.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)

	require.NoError(t, client.UpdatePassword(ctx, account.ID, "newpw12345678901"))
	require.Error(t, client.UpdatePassword(ctx, "missing", "newpw12345678901"))
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pw, err := GeneratePassword()
		require.NoError(t, err)
		require.Len(t, pw, 16)
		for _, c := range pw {
			require.True(t, strings.ContainsRune(passwordAlphabet, c),
				"unexpected character %q in %q", c, pw)
		}
		require.False(t, seen[pw], "duplicate password %q", pw)
		seen[pw] = true
	}
}
