package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCE verifier lengths are bounded by RFC 7636 (43 to 128 characters from
// the unreserved set). 64 random bytes base64url-encode to 86 characters,
// comfortably inside the window.
const (
	verifierByteLen = 64
	stateByteLen    = 32
)

// GenerateCodeVerifier produces a cryptographically random PKCE verifier.
func GenerateCodeVerifier() (string, error) {
	return secureRandomString(verifierByteLen)
}

// GenerateCodeChallenge derives the S256 challenge for a verifier:
// SHA-256 followed by unpadded base64url. Deterministic by construction.
func GenerateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState produces the CSRF-binding state parameter.
func GenerateState() (string, error) {
	return secureRandomString(stateByteLen)
}

// GenerateNonce produces the replay-binding nonce carried into the id_token.
func GenerateNonce() (string, error) {
	return secureRandomString(stateByteLen)
}

func secureRandomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
