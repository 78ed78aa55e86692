// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/taxdesk/internal/config"
	"github.com/carterperez-dev/taxdesk/internal/core"
)

// VerifiedToken is a token whose signature, issuer, audience and lifetime
// have been checked. Claims holds the full decoded payload.
type VerifiedToken struct {
	ID        string
	Subject   string
	ExpiresAt time.Time
	Claims    map[string]any
}

type Verifier struct {
	publicKey  jwk.Key
	publicJWKS jwk.Set
	issuer     string
	audience   string
}

func NewVerifier(cfg config.IdentityConfig) (*Verifier, error) {
	publicKeyPEM, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}

	publicKey, err := jwk.ParseKey(publicKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	if setErr := publicKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	if setErr := publicKey.Set(jwk.KeyUsageKey, "sig"); setErr != nil {
		return nil, fmt.Errorf("set key usage: %w", setErr)
	}

	publicJWKS := jwk.NewSet()
	if addErr := publicJWKS.AddKey(publicKey); addErr != nil {
		return nil, fmt.Errorf("add key to set: %w", addErr)
	}

	return &Verifier{
		publicKey:  publicKey,
		publicJWKS: publicJWKS,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}, nil
}

func (v *Verifier) Verify(
	_ context.Context,
	tokenString string,
) (*VerifiedToken, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), v.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	claims, err := decodePayload(tokenString)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	jti, _ := token.JwtID()
	exp, _ := token.Expiration()

	return &VerifiedToken{
		ID:        jti,
		Subject:   subject,
		ExpiresAt: exp,
		Claims:    claims,
	}, nil
}

// decodePayload reads the claim set of an already verified compact JWS so
// provider specific claims keep their JSON shape for claim mapping.
func decodePayload(tokenString string) (map[string]any, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed token: %w", core.ErrTokenInvalid)
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", core.ErrTokenInvalid)
	}

	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("decode payload: %w", core.ErrTokenInvalid)
	}

	return claims, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}

func (v *Verifier) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(v.publicJWKS); err != nil {
			http.Error(
				w,
				"Internal Server Error",
				http.StatusInternalServerError,
			)
			return
		}
	}
}

// Issuer mints tokens shaped like the identity provider's. It backs local
// development and tests; production tokens come from the provider.
type Issuer struct {
	privateKey jwk.Key
	issuer     string
	audience   string
	expire     time.Duration
}

// DevClaims are the claims Issuer places in a token. Role and Permissions
// land under public_metadata, matching the default claim mapping.
type DevClaims struct {
	Subject     string
	Email       string
	FirstName   string
	LastName    string
	Role        string
	Permissions map[string]bool
}

func NewIssuer(cfg config.IdentityConfig) (*Issuer, error) {
	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	expire := cfg.DevTokenExpire
	if expire <= 0 {
		expire = time.Hour
	}

	return &Issuer{
		privateKey: privateKey,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		expire:     expire,
	}, nil
}

func (i *Issuer) Mint(claims DevClaims) (string, error) {
	now := time.Now()

	metadata := map[string]any{"role": claims.Role}
	if len(claims.Permissions) > 0 {
		metadata["permissions"] = claims.Permissions
	}

	builder := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(i.issuer).
		Audience([]string{i.audience}).
		Subject(claims.Subject).
		IssuedAt(now).
		Expiration(now.Add(i.expire)).
		NotBefore(now).
		Claim("public_metadata", metadata)

	if claims.Email != "" {
		builder = builder.Claim("email", claims.Email)
	}
	if claims.FirstName != "" {
		builder = builder.Claim("first_name", claims.FirstName)
	}
	if claims.LastName != "" {
		builder = builder.Claim("last_name", claims.LastName)
	}

	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), i.privateKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	jwkPrivate, err := jwk.Import(privateKey)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	keyID := uuid.New().String()[:8]
	if setErr := jwkPrivate.Set(jwk.KeyIDKey, keyID); setErr != nil {
		return fmt.Errorf("set key id: %w", setErr)
	}
	if setErr := jwkPrivate.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return fmt.Errorf("set algorithm: %w", setErr)
	}

	privatePEM, err := jwk.Pem(jwkPrivate)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}

	if writeErr := os.WriteFile(privateKeyPath, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	jwkPublic, err := jwkPrivate.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	publicPEM, err := jwk.Pem(jwkPublic)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	//nolint:gosec // G306: public key is intentionally world-readable
	if writeErr := os.WriteFile(publicKeyPath, publicPEM, 0o644); writeErr != nil {
		return fmt.Errorf("write public key: %w", writeErr)
	}

	return nil
}
