package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/config"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/identity"
)

// IdentityExtractor is middleware that builds the caller identity from the
// gateway-forwarded bearer token. Authentication happens upstream; the token
// signature was already verified at the edge, so the claims are read without
// re-verification here.
type IdentityExtractor struct {
	Config *config.Config
}

// NewIdentityExtractor creates the identity middleware.
func NewIdentityExtractor(cfg *config.Config) *IdentityExtractor {
	return &IdentityExtractor{Config: cfg}
}

// Middleware returns an HTTP middleware that populates the request context
// with the caller identity.
func (m *IdentityExtractor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Authorization missing"))
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Malformed authorization header"))
			return
		}

		id, err := m.identityFromToken(tokenStr)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Malformed authorization token"))
			return
		}
		id.WithRemoteIP(m.remoteIP(r))

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

func (m *IdentityExtractor) identityFromToken(tokenStr string) (*identity.Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	idp, _ := claims["idp"].(string)
	if idp == "" {
		idp = m.Config.DefaultIdentityProvider
	}
	clientID, _ := claims["client_id"].(string)

	var groups []string
	if raw, ok := claims["groups"].([]interface{}); ok {
		for _, g := range raw {
			if name, ok := g.(string); ok {
				groups = append(groups, name)
			}
		}
	}

	return &identity.Identity{
		Subject:  identity.NewSubject(sub, idp),
		ClientID: clientID,
		Groups:   groups,
	}, nil
}

// remoteIP resolves the client address. Forwarded headers are honored only
// when the direct peer is a trusted proxy.
func (m *IdentityExtractor) remoteIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	if m.Config.IsTrustedProxy(host) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				return ip
			}
		}
	}
	return net.ParseIP(host)
}
