// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/taxdesk/internal/attribution"
	"github.com/carterperez-dev/taxdesk/internal/audit"
	"github.com/carterperez-dev/taxdesk/internal/core"
	"github.com/carterperez-dev/taxdesk/internal/rbac"
)

type Auditor interface {
	Log(
		ctx context.Context,
		actor audit.Actor,
		action, targetID string,
		metadata audit.Metadata,
	)
}

// Actor is the caller of a mutation. Identity carries the actual role used
// for every check; EffectiveRole is only recorded.
type Actor struct {
	Identity      *rbac.Identity
	EffectiveRole rbac.Role
}

func (a Actor) audit() audit.Actor {
	return audit.Actor{
		ID:            a.Identity.ID,
		Role:          a.Identity.Role.String(),
		EffectiveRole: a.EffectiveRole.String(),
	}
}

type Service struct {
	repo    Repository
	tx      core.Transactor
	auditor Auditor
}

func NewService(repo Repository, tx core.Transactor, auditor Auditor) *Service {
	return &Service{repo: repo, tx: tx, auditor: auditor}
}

func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Profile, int, error) {
	return s.repo.List(ctx, params)
}

// canManage reports whether actor may change target. Admin and super admin
// accounts can only be changed by a super admin.
func canManage(actor *rbac.Identity, targetRole string) bool {
	if actor.Role == rbac.RoleSuperAdmin {
		return true
	}
	role, err := rbac.ParseRole(targetRole)
	if err != nil {
		return false
	}
	return !role.IsAdmin()
}

// SetRole changes a profile's role in one transaction. Stored overrides are
// kept and apply on top of the new role's defaults.
func (s *Service) SetRole(
	ctx context.Context,
	actor Actor,
	targetID string,
	role rbac.Role,
) (*Profile, error) {
	if actor.Identity.ID == targetID {
		return nil, fmt.Errorf("set role: own role: %w", core.ErrForbidden)
	}

	if role.IsAdmin() && actor.Identity.Role != rbac.RoleSuperAdmin {
		return nil, fmt.Errorf("set role: grant %s: %w", role, core.ErrForbidden)
	}

	var (
		updated  *Profile
		previous string
	)

	err := s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := NewRepository(tx)

		p, err := repo.GetForUpdate(ctx, targetID)
		if err != nil {
			return err
		}

		if !canManage(actor.Identity, p.Role) {
			return fmt.Errorf("set role: target is %s: %w", p.Role, core.ErrForbidden)
		}

		if err := repo.UpdateRole(ctx, targetID, role); err != nil {
			return err
		}

		previous = p.Role
		p.Role = role.String()
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor.audit(), audit.ActionRoleChanged, targetID,
		audit.Metadata{"from": previous, "to": role.String()},
	)

	return updated, nil
}

// SetPermissions replaces a profile's overrides. Unknown capability keys are
// rejected, and an actor cannot grant a capability it does not hold.
func (s *Service) SetPermissions(
	ctx context.Context,
	actor Actor,
	targetID string,
	overrides rbac.Overrides,
) (*Profile, error) {
	clean, unknown := rbac.SanitizeOverrides(overrides)
	if len(unknown) > 0 {
		return nil, fmt.Errorf(
			"set permissions: unknown capabilities %s: %w",
			strings.Join(unknown, ", "),
			core.ErrInvalidInput,
		)
	}

	own := rbac.ResolveEffectivePermissions(actor.Identity.Role, actor.Identity.Overrides)
	for key, granted := range clean {
		if granted && !own.Allows(rbac.Capability(key)) {
			return nil, fmt.Errorf("set permissions: grant %s: %w", key, core.ErrForbidden)
		}
	}

	p, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !canManage(actor.Identity, p.Role) {
		return nil, fmt.Errorf("set permissions: target is %s: %w", p.Role, core.ErrForbidden)
	}

	stored := PermissionOverrides(clean)
	if len(stored) == 0 {
		stored = nil
	}

	if err := s.repo.UpdatePermissions(ctx, targetID, stored); err != nil {
		return nil, err
	}
	p.Overrides = stored

	metadata := audit.Metadata{}
	for key, value := range clean {
		metadata[key] = value
	}
	s.auditor.Log(ctx, actor.audit(), audit.ActionPermissionsChanged, targetID,
		audit.Metadata{"overrides": metadata},
	)

	return p, nil
}

// ClaimTrackingCode sets the caller's custom tracking code. Codes are unique
// across every namespace, ignoring case.
func (s *Service) ClaimTrackingCode(
	ctx context.Context,
	actor Actor,
	code string,
) (*Profile, error) {
	code = strings.TrimSpace(code)
	if !attribution.ValidCode(code) {
		return nil, fmt.Errorf("claim tracking code %q: %w", code, core.ErrInvalidInput)
	}

	taken, err := s.repo.TrackingCodeTaken(ctx, code, actor.Identity.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("claim tracking code %q: %w", code, core.ErrDuplicateKey)
	}

	if err := s.repo.UpdateCustomTrackingCode(ctx, actor.Identity.ID, code); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, actor.Identity.ID)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor.audit(), audit.ActionTrackingCodeSet, actor.Identity.ID,
		audit.Metadata{"code": code},
	)

	return p, nil
}

// BindReferrer stores the visitor's attribution on their profile so credit
// survives account creation. The first binding wins.
func (s *Service) BindReferrer(
	ctx context.Context,
	actor Actor,
	attr *attribution.Attribution,
) (*Profile, error) {
	if attr == nil {
		return nil, fmt.Errorf("bind referrer: no attribution: %w", core.ErrInvalidInput)
	}

	if attr.ProfileID == actor.Identity.ID {
		return nil, fmt.Errorf("bind referrer: self referral: %w", core.ErrInvalidInput)
	}

	bound, err := s.repo.BindReferrer(
		ctx,
		actor.Identity.ID,
		attr.ReferrerUsername,
		attr.ReferrerType,
	)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, actor.Identity.ID)
	if err != nil {
		return nil, err
	}

	if !bound {
		return p, fmt.Errorf("bind referrer: %w", core.ErrConflict)
	}

	s.auditor.Log(ctx, actor.audit(), audit.ActionReferrerBound, actor.Identity.ID,
		audit.Metadata{
			"referrer_username":   attr.ReferrerUsername,
			"referrer_type":       attr.ReferrerType,
			"referrer_profile_id": attr.ProfileID,
		},
	)

	return p, nil
}

func (s *Service) Delete(ctx context.Context, actor Actor, targetID string) error {
	if actor.Identity.ID == targetID {
		return fmt.Errorf("delete profile: self: %w", core.ErrForbidden)
	}

	p, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if !canManage(actor.Identity, p.Role) {
		return fmt.Errorf("delete profile: target is %s: %w", p.Role, core.ErrForbidden)
	}

	if err := s.repo.SoftDelete(ctx, targetID); err != nil {
		return err
	}

	s.auditor.Log(ctx, actor.audit(), audit.ActionProfileDeleted, targetID,
		audit.Metadata{"role": p.Role, "email": p.Email},
	)

	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
