package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/config"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func testConfig(t *testing.T) *config.Config {
	t.Setenv("FABRIC_AUTHZ_CONFIG_PATH", t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestMiddlewareExtractsIdentity(t *testing.T) {
	cfg := testConfig(t)
	extractor := NewIdentityExtractor(cfg)

	var got *identity.Identity
	handler := extractor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = identity.Get(r.Context())
	}))

	token := signedToken(t, jwt.MapClaims{
		"sub":       "bob.smith",
		"idp":       "azuread",
		"client_id": "patientsafety",
		"groups":    []interface{}{"PS Admins", "Readers"},
	})

	req := httptest.NewRequest("GET", "/user/permissions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.RemoteAddr = "203.0.113.9:51234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "bob.smith", got.Subject.SubjectID)
	assert.Equal(t, "azuread", got.Subject.IdentityProvider)
	assert.Equal(t, "patientsafety", got.ClientID)
	assert.Equal(t, []string{"PS Admins", "Readers"}, got.Groups)
	assert.Equal(t, "203.0.113.9", got.RemoteIP.String())
}

func TestMiddlewareDefaultsIdentityProvider(t *testing.T) {
	cfg := testConfig(t)
	extractor := NewIdentityExtractor(cfg)

	var got *identity.Identity
	handler := extractor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = identity.Get(r.Context())
	}))

	token := signedToken(t, jwt.MapClaims{"sub": "bob.smith"})

	req := httptest.NewRequest("GET", "/user/permissions", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, cfg.DefaultIdentityProvider, got.Subject.IdentityProvider)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	extractor := NewIdentityExtractor(testConfig(t))

	handler := extractor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/user/permissions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsGarbageToken(t *testing.T) {
	extractor := NewIdentityExtractor(testConfig(t))

	handler := extractor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/user/permissions", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareForwardedForFromTrustedProxy(t *testing.T) {
	cfg := testConfig(t)
	cfg.TrustedProxies = []string{"10.0.0.0/8"}
	extractor := NewIdentityExtractor(cfg)

	var got *identity.Identity
	handler := extractor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = identity.Get(r.Context())
	}))

	token := signedToken(t, jwt.MapClaims{"sub": "bob.smith"})

	req := httptest.NewRequest("GET", "/user/permissions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.1.1.1")
	req.RemoteAddr = "10.1.1.1:443"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.Equal(t, "198.51.100.7", got.RemoteIP.String())
}

func TestMiddlewareForwardedForIgnoredFromUntrustedPeer(t *testing.T) {
	cfg := testConfig(t)
	extractor := NewIdentityExtractor(cfg)

	var got *identity.Identity
	handler := extractor.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = identity.Get(r.Context())
	}))

	token := signedToken(t, jwt.MapClaims{"sub": "bob.smith"})

	req := httptest.NewRequest("GET", "/user/permissions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	req.RemoteAddr = "203.0.113.9:443"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, got)
	assert.Equal(t, "203.0.113.9", got.RemoteIP.String())
}
