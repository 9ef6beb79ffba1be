package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/target/userdeck/internal/ports"
)

const (
	testClientID = "test-client"
	testKeyID    = "test-key"
)

// fakeIdP is a minimal OpenID provider: discovery, JWKS, token and userinfo.
type fakeIdP struct {
	*httptest.Server
	key *rsa.PrivateKey

	mu       sync.Mutex
	nonce    string
	claims   jwt.MapClaims
	userinfo map[string]any
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idp := &fakeIdP{key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, DiscoveryDocument{
			Issuer:                idp.URL,
			AuthorizationEndpoint: idp.URL + "/auth",
			TokenEndpoint:         idp.URL + "/token",
			UserinfoEndpoint:      idp.URL + "/userinfo",
			JwksURI:               idp.URL + "/jwks",
		})
	})
	mux.HandleFunc("GET /jwks", func(w http.ResponseWriter, _ *http.Request) {
		pub := idp.key.PublicKey
		writeJSON(w, map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}}})
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		writeJSON(w, map[string]any{
			"access_token": "google-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idp.idToken(t),
		})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, _ *http.Request) {
		idp.mu.Lock()
		defer idp.mu.Unlock()
		writeJSON(w, idp.userinfo)
	})
	idp.Server = httptest.NewServer(mux)
	t.Cleanup(idp.Close)
	return idp
}

func (f *fakeIdP) setClaims(c jwt.MapClaims) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims = c
}

func (f *fakeIdP) idToken(t *testing.T) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims := jwt.MapClaims{
		"iss": f.URL,
		"aud": testClientID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range f.claims {
		claims[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKeyID
	s, err := tok.SignedString(f.key)
	require.NoError(t, err)
	return s
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestProvider(t *testing.T, idp *fakeIdP) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     testClientID,
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:3000/auth/google/callback",
		Scope:        "openid email profile",
		DiscoveryURL: idp.URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_DiscoversEndpoints(t *testing.T) {
	idp := newFakeIdP(t)
	p := newTestProvider(t, idp)
	assert.Equal(t, idp.URL+"/auth", p.config.Endpoint.AuthURL)
	assert.Equal(t, idp.URL+"/token", p.config.Endpoint.TokenURL)
	assert.Equal(t, []string{"openid", "email", "profile"}, p.config.Scopes)
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{"missing client ID", ProviderConfig{ClientSecret: "s", RedirectURL: "http://x/cb"}, "client ID is required"},
		{"missing client secret", ProviderConfig{ClientID: "c", RedirectURL: "http://x/cb"}, "client secret is required"},
		{"missing redirect URL", ProviderConfig{ClientID: "c", ClientSecret: "s"}, "redirect URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Begin(t *testing.T) {
	p := newTestProvider(t, newFakeIdP(t))

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{RedirectURL: "http://localhost:3000/auth/google/callback"})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Equal(t, state, q.Get("state"))
	assert.Equal(t, nonce, q.Get("nonce"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))

	_, _, _, err = p.Begin(context.Background(), ports.BeginInput{})
	assert.Error(t, err)
}

func TestProvider_ExchangeSuccess(t *testing.T) {
	idp := newFakeIdP(t)
	idp.setClaims(jwt.MapClaims{
		"sub":   "google-sub-1",
		"email": "grace@example.com",
		"name":  "Grace Hopper",
		"nonce": "n-1",
	})
	p := newTestProvider(t, idp)

	id, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "good-code", State: "s", Nonce: "n-1"})
	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", id.Subject)
	assert.Equal(t, "grace@example.com", id.Email)
	assert.Equal(t, "Grace Hopper", id.Name)
	assert.Equal(t, "google-access-token", id.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), id.ExpiresAt, time.Minute)
}

func TestProvider_ExchangeNonceMismatch(t *testing.T) {
	idp := newFakeIdP(t)
	idp.setClaims(jwt.MapClaims{"sub": "s", "email": "e@x.io", "nonce": "other"})
	p := newTestProvider(t, idp)

	_, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "good-code", State: "s", Nonce: "n-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid nonce")
}

func TestProvider_ExchangeFillsFromUserInfo(t *testing.T) {
	idp := newFakeIdP(t)
	idp.setClaims(jwt.MapClaims{"sub": "google-sub-2", "nonce": "n"})
	idp.userinfo = map[string]any{"sub": "google-sub-2", "email": "ui@example.com", "given_name": "Ui", "family_name": "User"}
	p := newTestProvider(t, idp)

	id, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "good-code", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, "ui@example.com", id.Email)
	assert.Equal(t, "Ui User", id.Name)
}

func TestProvider_ExchangeBadCode(t *testing.T) {
	p := newTestProvider(t, newFakeIdP(t))

	_, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "bad", State: "s", Nonce: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code for token")
}

func TestProvider_ExchangeValidationErrors(t *testing.T) {
	p := newTestProvider(t, newFakeIdP(t))
	tests := []struct {
		input  ports.ExchangeInput
		errMsg string
	}{
		{ports.ExchangeInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{ports.ExchangeInput{Code: "c", Nonce: "n"}, "state is required"},
		{ports.ExchangeInput{Code: "c", State: "s"}, "nonce is required"},
	}
	for _, tt := range tests {
		_, err := p.Exchange(context.Background(), tt.input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), tt.errMsg)
	}
}

func TestGenerateRandomString(t *testing.T) {
	a, err := generateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := generateRandomString(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	empty, err := generateRandomString(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetIDTokenFromToken(t *testing.T) {
	tok := (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "abc.def.ghi"})
	raw, err := getIDTokenFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", raw)

	_, err = getIDTokenFromToken((&oauth2.Token{}).WithExtra(map[string]any{"x": "y"}))
	assert.ErrorContains(t, err, "missing id_token")

	_, err = getIDTokenFromToken(nil)
	assert.ErrorContains(t, err, "nil token")
}

func TestMapClaims(t *testing.T) {
	f := mapClaims(googleClaims{Subject: "s", Email: "e", GivenName: "Ada", FamilyName: "Lovelace"})
	assert.Equal(t, "Ada Lovelace", f.name)

	keep := idFields{subject: "keep", email: "keep@x.io", name: "Keep"}
	fillMissing(&keep, idFields{subject: "other", email: "o@x.io", name: "Other"})
	assert.Equal(t, idFields{subject: "keep", email: "keep@x.io", name: "Keep"}, keep)
}
