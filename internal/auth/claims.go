// AngelaMos | 2026
// claims.go

package auth

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/carterperez-dev/taxdesk/internal/config"
	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

// ClaimsMapper pulls identity fields out of provider claims with JMESPath
// expressions, so a provider that nests role data differently only needs
// configuration. A nil expression yields no value.
type ClaimsMapper struct {
	role        jmespath.JMESPath
	permissions jmespath.JMESPath
	email       jmespath.JMESPath
	firstName   jmespath.JMESPath
	lastName    jmespath.JMESPath
}

func NewClaimsMapper(cfg config.ClaimsConfig) (*ClaimsMapper, error) {
	if strings.TrimSpace(cfg.Role) == "" {
		return nil, fmt.Errorf("claims role expression: %w", core.ErrInvalidInput)
	}

	m := &ClaimsMapper{}
	exprs := []struct {
		name string
		expr string
		dst  *jmespath.JMESPath
	}{
		{"role", cfg.Role, &m.role},
		{"permissions", cfg.Permissions, &m.permissions},
		{"email", cfg.Email, &m.email},
		{"first_name", cfg.FirstName, &m.firstName},
		{"last_name", cfg.LastName, &m.lastName},
	}

	for _, e := range exprs {
		if strings.TrimSpace(e.expr) == "" {
			continue
		}
		compiled, err := jmespath.Compile(e.expr)
		if err != nil {
			return nil, fmt.Errorf("claims %s expression %q: %w", e.name, e.expr, err)
		}
		*e.dst = compiled
	}

	return m, nil
}

// Map builds the untyped identity for subject. Values of the wrong JSON
// type are dropped here and rejected later by rbac.ParseIdentity where
// they are required.
func (m *ClaimsMapper) Map(subject string, claims map[string]any) (rbac.RawIdentity, error) {
	raw := rbac.RawIdentity{ID: subject}

	role, err := m.search(m.role, claims)
	if err != nil {
		return raw, err
	}
	raw.Role = asString(role)

	if raw.Permissions, err = m.search(m.permissions, claims); err != nil {
		return raw, err
	}

	fields := []struct {
		expr jmespath.JMESPath
		dst  *string
	}{
		{m.email, &raw.Email},
		{m.firstName, &raw.FirstName},
		{m.lastName, &raw.LastName},
	}
	for _, f := range fields {
		v, err := m.search(f.expr, claims)
		if err != nil {
			return raw, err
		}
		*f.dst = asString(v)
	}

	return raw, nil
}

func (m *ClaimsMapper) search(expr jmespath.JMESPath, claims map[string]any) (any, error) {
	if expr == nil {
		return nil, nil
	}

	v, err := expr.Search(claims)
	if err != nil {
		return nil, fmt.Errorf("evaluate claim: %w: %w", core.ErrTokenInvalid, err)
	}
	return v, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
