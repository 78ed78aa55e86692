// AngelaMos | 2026
// security.go

package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"golang.org/x/crypto/hkdf"
)

const signingKeyLength = 32

var ErrBadSignature = errors.New("signature mismatch")

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Signer produces compact HS256 JWS values. Each purpose gets its own
// HKDF-derived key so one secret can back several cookies.
type Signer struct {
	key jwk.Key
}

func NewSigner(secret, purpose string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("new signer: empty secret: %w", ErrInvalidInput)
	}

	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	raw := make([]byte, signingKeyLength)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}

	key, err := jwk.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("import signing key: %w", err)
	}

	return &Signer{key: key}, nil
}

func (s *Signer) Sign(payload []byte) (string, error) {
	signed, err := jws.Sign(payload, jws.WithKey(jwa.HS256(), s.key))
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return string(signed), nil
}

func (s *Signer) Verify(value string) ([]byte, error) {
	if value == "" {
		return nil, ErrBadSignature
	}

	payload, err := jws.Verify([]byte(value), jws.WithKey(jwa.HS256(), s.key))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}

	return payload, nil
}
