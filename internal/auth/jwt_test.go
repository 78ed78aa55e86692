// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/taxdesk/internal/config"
	"github.com/carterperez-dev/taxdesk/internal/core"
)

func testIdentityConfig(t *testing.T) config.IdentityConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.IdentityConfig{
		PrivateKeyPath: filepath.Join(dir, "private.pem"),
		PublicKeyPath:  filepath.Join(dir, "public.pem"),
		Issuer:         "taxdesk-identity",
		Audience:       "taxdesk",
		DevTokenExpire: time.Hour,
		Claims: config.ClaimsConfig{
			Role:        "public_metadata.role",
			Permissions: "public_metadata.permissions",
			Email:       "email",
			FirstName:   "first_name",
			LastName:    "last_name",
		},
	}
	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))
	return cfg
}

func newTestKeys(t *testing.T) (*Issuer, *Verifier, config.IdentityConfig) {
	t.Helper()
	cfg := testIdentityConfig(t)

	issuer, err := NewIssuer(cfg)
	require.NoError(t, err)
	verifier, err := NewVerifier(cfg)
	require.NoError(t, err)

	return issuer, verifier, cfg
}

func TestMintAndVerify(t *testing.T) {
	issuer, verifier, _ := newTestKeys(t)

	token, err := issuer.Mint(DevClaims{
		Subject:     "user_sarah",
		Email:       "sarah@example.com",
		FirstName:   "Sarah",
		Role:        "tax_preparer",
		Permissions: map[string]bool{"payouts": true},
	})
	require.NoError(t, err)

	vt, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_sarah", vt.Subject)
	assert.NotEmpty(t, vt.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), vt.ExpiresAt, time.Minute)

	metadata, ok := vt.Claims["public_metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tax_preparer", metadata["role"])
	assert.Equal(t, map[string]any{"payouts": true}, metadata["permissions"])
	assert.Equal(t, "sarah@example.com", vt.Claims["email"])
}

func TestVerifyRejects(t *testing.T) {
	issuer, verifier, cfg := newTestKeys(t)
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify(ctx, "not.a.token")
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		expired := *issuer
		expired.expire = -time.Minute
		token, err := expired.Mint(DevClaims{Subject: "user_1", Role: "client"})
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, token)
		assert.Error(t, err)
	})

	t.Run("other audience", func(t *testing.T) {
		other := *issuer
		other.audience = "someone-else"
		token, err := other.Mint(DevClaims{Subject: "user_1", Role: "client"})
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("other key", func(t *testing.T) {
		foreignCfg := testIdentityConfig(t)
		foreignCfg.Issuer = cfg.Issuer
		foreign, err := NewIssuer(foreignCfg)
		require.NoError(t, err)
		token, err := foreign.Mint(DevClaims{Subject: "user_1", Role: "client"})
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := issuer.Mint(DevClaims{Role: "client"})
		require.NoError(t, err)

		_, err = verifier.Verify(ctx, token)
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})
}

func TestJWKSHandler(t *testing.T) {
	_, verifier, _ := newTestKeys(t)

	rec := httptest.NewRecorder()
	verifier.JWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, "EC", body.Keys[0]["kty"])
	assert.Equal(t, "sig", body.Keys[0]["use"])
}
