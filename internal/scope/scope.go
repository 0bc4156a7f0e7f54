// Package scope resolves the storage and sync partition for the current
// session: either the anonymous scope or a stable authenticated user id.
// Collections from different scopes are never mixed implicitly; sign-in
// migrates the anonymous partition exactly once, via explicit merge.
package scope

import (
	"encoding/hex"
	"fmt"

	"aidanwoods.dev/go-paseto"
)

// ID identifies a storage/sync partition.
type ID string

// Anonymous is the scope used when no authenticated session exists.
const Anonymous ID = "anonymous"

// IsAnonymous reports whether this is the unauthenticated scope.
func (id ID) IsAnonymous() bool {
	return id == Anonymous || id == ""
}

// String implements fmt.Stringer.
func (id ID) String() string {
	if id == "" {
		return string(Anonymous)
	}
	return string(id)
}

// SessionSource supplies the ambient session token. The UI layer owns the
// session lifecycle; the resolver only reads it.
type SessionSource interface {
	SessionToken() string
}

// StaticSession is a fixed-token SessionSource for tests and the sync server.
type StaticSession string

// SessionToken implements SessionSource.
func (s StaticSession) SessionToken() string { return string(s) }

const (
	tokenIssuer   = "quill-server"
	tokenAudience = "quill-client"

	// PASETO v4 symmetric key requirements.
	keyBytesSize = 32 // 256 bits
	keyHexSize   = 64 // 32 bytes as hex string
)

// Resolver derives the current scope from ambient session state. Resolution
// never fails: any absent, malformed, expired, or forged session token
// resolves to the anonymous scope.
type Resolver struct {
	symmetricKey paseto.V4SymmetricKey
	source       SessionSource
}

// NewResolver creates a resolver verifying v4.local session tokens with the
// given hex-encoded 256-bit key.
func NewResolver(keyHex string, source SessionSource) (*Resolver, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &Resolver{symmetricKey: key, source: source}, nil
}

// CurrentScope resolves the scope of the ambient session. Pure read of
// ambient state; never fails.
func (r *Resolver) CurrentScope() ID {
	if r == nil || r.source == nil {
		return Anonymous
	}
	return r.ScopeFor(r.source.SessionToken())
}

// ScopeFor resolves the scope carried by a specific session token. Used by
// the sync server, where the token arrives per-request instead of from
// ambient state.
func (r *Resolver) ScopeFor(token string) ID {
	if r == nil || token == "" {
		return Anonymous
	}

	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())

	parsed, err := parser.ParseV4Local(r.symmetricKey, token, nil)
	if err != nil {
		return Anonymous
	}

	subject, err := parsed.GetSubject()
	if err != nil || subject == "" {
		return Anonymous
	}
	return ID(subject)
}
