// AngelaMos | 2026
// dto.go

package profile

import (
	"time"

	"github.com/carterperez-dev/taxdesk/internal/rbac"
	"github.com/carterperez-dev/taxdesk/internal/viewas"
)

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,max=32"`
}

type UpdatePermissionsRequest struct {
	Permissions map[string]bool `json:"permissions" validate:"required"`
}

type ClaimTrackingCodeRequest struct {
	Code string `json:"code" validate:"required,min=2,max=64"`
}

type BindReferrerRequest struct {
	Code string `json:"code" validate:"omitempty,max=64"`
}

type ProfileResponse struct {
	ID                 string          `json:"id"`
	Email              string          `json:"email"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Role               string          `json:"role"`
	Overrides          map[string]bool `json:"permission_overrides,omitempty"`
	TrackingCode       string          `json:"tracking_code,omitempty"`
	CustomTrackingCode string          `json:"custom_tracking_code,omitempty"`
	ShortLinkUsername  string          `json:"short_link_username,omitempty"`
	ReferredByUsername string          `json:"referred_by_username,omitempty"`
	ReferredByType     string          `json:"referred_by_type,omitempty"`
	Referred           bool            `json:"referred"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// MeResponse is everything a layout needs to render navigation for the
// current request.
type MeResponse struct {
	ID          string                   `json:"id"`
	Email       string                   `json:"email,omitempty"`
	DisplayName string                   `json:"display_name"`
	Role        viewas.EffectiveRoleInfo `json:"role"`
	RoleInfo    rbac.RoleInfo            `json:"role_info"`
	Permissions []rbac.Capability        `json:"permissions"`
	Profile     *ProfileResponse         `json:"profile,omitempty"`
}

type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Role     string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToProfileResponse(p *Profile) ProfileResponse {
	return ProfileResponse{
		ID:                 p.ID,
		Email:              p.Email,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Role:               p.Role,
		Overrides:          p.Overrides,
		TrackingCode:       strValue(p.TrackingCode),
		CustomTrackingCode: strValue(p.CustomTrackingCode),
		ShortLinkUsername:  strValue(p.ShortLinkUsername),
		ReferredByUsername: strValue(p.ReferredByUsername),
		ReferredByType:     strValue(p.ReferredByType),
		Referred:           p.HasReferrer(),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func ToProfileResponseList(profiles []Profile) []ProfileResponse {
	responses := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		responses = append(responses, ToProfileResponse(&profiles[i]))
	}
	return responses
}
