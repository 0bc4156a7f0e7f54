package scope

import (
	"encoding/hex"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

// NewSessionToken mints a v4.local session token for userID. The production
// backend issues sessions; this exists for tests and local development
// against the reference sync server.
func NewSessionToken(keyHex, userID string, ttl time.Duration) (string, error) {
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return "", fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}
	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return "", fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	now := time.Now()
	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(userID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(ttl))

	return token.V4Encrypt(key, nil), nil
}

// NewSessionKey generates a random hex-encoded key suitable for NewResolver.
func NewSessionKey() string {
	return paseto.NewV4SymmetricKey().ExportHex()
}
