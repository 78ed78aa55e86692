// AngelaMos | 2026
// loader.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/profile"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*VerifiedToken, error)
}

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=profiles_mock_test.go -package=auth github.com/carterperez-dev/taxdesk/internal/auth ProfileSource

// ProfileSource is the stored profile that wins over token claims for role
// and permissions once it exists.
type ProfileSource interface {
	GetByID(ctx context.Context, id string) (*profile.Profile, error)
}

type LoaderConfig struct {
	Verifier    TokenVerifier
	Mapper      *ClaimsMapper
	Profiles    ProfileSource
	Revocations Revocations
}

// Loader turns a bearer token into a validated identity. It satisfies
// middleware.IdentityLoader.
type Loader struct {
	verifier    TokenVerifier
	mapper      *ClaimsMapper
	profiles    ProfileSource
	revocations Revocations
}

func NewLoader(cfg LoaderConfig) *Loader {
	return &Loader{
		verifier:    cfg.Verifier,
		mapper:      cfg.Mapper,
		profiles:    cfg.Profiles,
		revocations: cfg.Revocations,
	}
}

func (l *Loader) Load(ctx context.Context, token string) (*rbac.Identity, error) {
	vt, err := l.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if l.revocations != nil && vt.ID != "" {
		revoked, err := l.revocations.IsRevoked(ctx, vt.ID)
		if err != nil {
			return nil, fmt.Errorf("load identity: %w: %w", core.ErrUnavailable, err)
		}
		if revoked {
			return nil, fmt.Errorf("load identity: %w", core.ErrTokenRevoked)
		}
	}

	raw, err := l.mapper.Map(vt.Subject, vt.Claims)
	if err != nil {
		return nil, err
	}

	if l.profiles != nil {
		if err := l.overlayProfile(ctx, &raw); err != nil {
			return nil, err
		}
	}

	id, err := rbac.ParseIdentity(raw)
	if err != nil {
		slog.DebugContext(ctx, "identity rejected",
			"subject", vt.Subject,
			"error", err,
		)
		return nil, err
	}

	return id, nil
}

// overlayProfile replaces role and overrides with the stored values. A
// subject without a profile keeps what the token says.
func (l *Loader) overlayProfile(ctx context.Context, raw *rbac.RawIdentity) error {
	p, err := l.profiles.GetByID(ctx, raw.ID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load profile: %w: %w", core.ErrUnavailable, err)
	}

	raw.Role = p.Role
	raw.Permissions = p.Overrides.Rbac()

	if raw.Email == "" {
		raw.Email = p.Email
	}
	if raw.FirstName == "" {
		raw.FirstName = p.FirstName
	}
	if raw.LastName == "" {
		raw.LastName = p.LastName
	}

	return nil
}
