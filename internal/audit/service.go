// AngelaMos | 2026
// service.go

package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type Actor struct {
	ID            string
	Role          string
	EffectiveRole string
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(
	ctx context.Context,
	actor Actor,
	action, targetID string,
	metadata Metadata,
) error {
	effective := actor.EffectiveRole
	if effective == "" {
		effective = actor.Role
	}

	entry := &Entry{
		ID:            uuid.New().String(),
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		EffectiveRole: effective,
		Action:        action,
		TargetID:      targetID,
		Metadata:      metadata,
	}

	return s.repo.Insert(ctx, entry)
}

// Log records an entry and only logs a failure. The audited action has
// already happened by the time it is called.
func (s *Service) Log(
	ctx context.Context,
	actor Actor,
	action, targetID string,
	metadata Metadata,
) {
	if err := s.Record(ctx, actor, action, targetID, metadata); err != nil {
		slog.WarnContext(ctx, "audit write failed",
			"action", action,
			"actor_id", actor.ID,
			"target_id", targetID,
			"error", err,
		)
	}
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Entry, int, error) {
	return s.repo.List(ctx, params)
}
