// AngelaMos | 2026
// identity.go

package rbac

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/taxdesk/internal/core"
)

// Identity is the authenticated principal after boundary validation.
type Identity struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Overrides Overrides `json:"permission_overrides,omitempty"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
}

func (i *Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Email
	}
	return name
}

// RawIdentity carries values as the identity provider hands them over,
// before any typing has been applied.
type RawIdentity struct {
	ID          string `validate:"required,max=255"`
	Role        string `validate:"required"`
	Permissions any
	Email       string `validate:"omitempty,email,max=255"`
	FirstName   string `validate:"max=100"`
	LastName    string `validate:"max=100"`
}

var identityValidator = validator.New(validator.WithRequiredStructEnabled())

// ParseIdentity turns loosely typed identity data into an Identity or an
// error wrapping core.ErrInvalidInput.
func ParseIdentity(raw RawIdentity) (*Identity, error) {
	raw.ID = strings.TrimSpace(raw.ID)
	raw.Email = strings.TrimSpace(raw.Email)

	if err := identityValidator.Struct(raw); err != nil {
		return nil, fmt.Errorf(
			"parse identity: %s: %w",
			core.FormatValidationError(err),
			core.ErrInvalidInput,
		)
	}

	role, err := ParseRole(raw.Role)
	if err != nil {
		return nil, fmt.Errorf("parse identity: %w", err)
	}

	overrides, err := ParseOverrides(raw.Permissions)
	if err != nil {
		return nil, fmt.Errorf("parse identity: %w", err)
	}

	return &Identity{
		ID:        raw.ID,
		Role:      role,
		Overrides: overrides,
		Email:     strings.ToLower(raw.Email),
		FirstName: strings.TrimSpace(raw.FirstName),
		LastName:  strings.TrimSpace(raw.LastName),
	}, nil
}

// ParseOverrides accepts nil, Overrides, map[string]bool or a decoded JSON
// object whose values are all booleans. Unknown capability keys are kept
// here and ignored later by the resolver.
func ParseOverrides(v any) (Overrides, error) {
	switch typed := v.(type) {
	case nil:
		return nil, nil
	case Overrides:
		return typed, nil
	case map[string]bool:
		return Overrides(typed), nil
	case map[string]any:
		out := make(Overrides, len(typed))
		for key, raw := range typed {
			b, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf(
					"permission %q: expected boolean, got %T: %w",
					key,
					raw,
					core.ErrInvalidInput,
				)
			}
			out[key] = b
		}
		return out, nil
	default:
		return nil, fmt.Errorf(
			"permissions: expected object, got %T: %w",
			v,
			core.ErrInvalidInput,
		)
	}
}
