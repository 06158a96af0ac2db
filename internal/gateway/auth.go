package gateway

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Identity is who a connection acts as. Anonymous identities are minted
// per handshake and never persisted beyond the result cache.
type Identity struct {
	UserID        string
	Name          string
	Authenticated bool
}

// Authenticator resolves the identity behind a websocket handshake.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

// HeaderAuthenticator trusts X-User-* headers injected by a fronting
// proxy, falling back to a fresh anonymous identity when absent.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	id := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if id == "" {
		return anonymousIdentity(), nil
	}
	name := strings.TrimSpace(r.Header.Get("X-User-Name"))
	if name == "" {
		name = "user-" + shortID(id)
	}
	return Identity{UserID: id, Name: name, Authenticated: true}, nil
}

// TokenAuthenticator lets a returning anonymous client present the token
// it was handed earlier, keeping its seat reachable across reconnects.
// Authenticated identities still come from the wrapped authenticator.
type TokenAuthenticator struct {
	Next Authenticator
}

func (a TokenAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	if a.Next != nil {
		ident, err := a.Next.Authenticate(r)
		if err != nil {
			return Identity{}, err
		}
		if ident.Authenticated {
			return ident, nil
		}
	}
	if tok := strings.TrimSpace(r.URL.Query().Get("anonToken")); tok != "" {
		return Identity{UserID: tok, Name: "Anonymous-" + shortID(tok)}, nil
	}
	return anonymousIdentity(), nil
}

func anonymousIdentity() Identity {
	id := uuid.NewString()
	return Identity{UserID: id, Name: "Anonymous-" + shortID(id)}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
