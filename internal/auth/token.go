// Package auth is the credential gate: identity tokens are issued as
// signed+encrypted securecookie values and verified once per connection
// attempt. The relay never sees raw credentials, only the verified
// identity this package decodes.
package auth

import (
	"context"
	"crypto/sha256"

	"github.com/gorilla/securecookie"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

const tokenName = "auth"

type TokenService struct {
	sc *securecookie.SecureCookie
}

// NewTokenService derives the hash and block keys from the configured
// secret. Rotating the secret invalidates every outstanding token.
func NewTokenService(secret string) *TokenService {
	hashKey := sha256.Sum256([]byte(secret + "/hash"))
	blockKey := sha256.Sum256([]byte(secret + "/block"))
	return &TokenService{sc: securecookie.New(hashKey[:], blockKey[:])}
}

// Issue encodes the identity into a credential token.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	return s.sc.Encode(tokenName, user)
}

// Verify implements core.Verifier. A missing, malformed or forged token
// is unauthorized; no partial identity ever comes back.
func (s *TokenService) Verify(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	var u domain.User
	if err := s.sc.Decode(tokenName, token, &u); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if u.ID == "" || u.Username == "" {
		return nil, domain.ErrUnauthorized
	}
	return &u, nil
}
