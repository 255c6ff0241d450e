// Copyright (c) 2026 Folivafy authors. All rights reserved.

package identity

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// claims is the payload this service expects inside a bearer token: a
// subject UUID, a preferred username and a role list. The token's
// signature and expiry are already verified by the time claims reaches
// application code; this type only shapes the fields the core reads.
type claims struct {
	jwt.RegisteredClaims
	PreferredUsername string   `json:"preferred_username"`
	Roles             []string `json:"roles"`
}

// Verifier turns a raw bearer token string into a [Caller].
type Verifier interface {
	VerifyToken(tokenString string) (Caller, error)
}

// JWTVerifier verifies bearer tokens signed either with RS256 (an
// identity provider's public key) or HS256 (a shared HMAC secret),
// whichever this instance was constructed with.
type JWTVerifier struct {
	publicKey    *rsa.PublicKey
	hmacSecret   []byte
	keyfunc      jwt.Keyfunc
	expectedAlgs []string
}

// NewRSAVerifier builds a [JWTVerifier] that accepts RS256 tokens signed
// against publicKeyPath, a PEM-encoded RSA public key.
func NewRSAVerifier(publicKeyPath string) (*JWTVerifier, error) {
	data, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("identity: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("identity: failed to parse public key: %w", err)
	}

	v := &JWTVerifier{publicKey: publicKey, expectedAlgs: []string{"RS256"}}
	v.keyfunc = func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	}
	return v, nil
}

// NewHMACVerifier builds a [JWTVerifier] that accepts HS256 tokens signed
// with the given shared secret. Used for local/dev deployments that have
// no identity-provider public key.
func NewHMACVerifier(secret string) *JWTVerifier {
	v := &JWTVerifier{hmacSecret: []byte(secret), expectedAlgs: []string{"HS256"}}
	v.keyfunc = func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method: %v", token.Header["alg"])
		}
		return v.hmacSecret, nil
	}
	return v
}

// VerifyToken parses and validates tokenString and resolves it to a
// [Caller]. It returns an error for any signature, expiry or claim-shape
// failure; the HTTP middleware turns that into a permission-denied
// response.
func (v *JWTVerifier) VerifyToken(tokenString string) (Caller, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, v.keyfunc, jwt.WithValidMethods(v.expectedAlgs))
	if err != nil {
		return Caller{}, fmt.Errorf("identity: invalid token: %w", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Caller{}, errors.New("identity: invalid token claims")
	}

	if c.Subject == "" {
		return Caller{}, errors.New("identity: token missing sub claim")
	}

	return New(c.Subject, c.PreferredUsername, c.Roles), nil
}
