package auth

import (
	"context"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
)

// Scheduler is the yes/no oracle consulted at create/join time. The
// lifecycle controller calls it before any registry mutation.
type Scheduler interface {
	CanCreate(ctx context.Context, id domain.Identity, roomID string) (bool, error)
	CanJoin(ctx context.Context, id domain.Identity, roomID string) (bool, error)
}

// RolePolicy is the default in-process oracle: teachers may create
// rooms, any authenticated identity may join.
type RolePolicy struct{}

func (RolePolicy) CanCreate(_ context.Context, id domain.Identity, _ string) (bool, error) {
	return id.Role == domain.RoleTeacher, nil
}

func (RolePolicy) CanJoin(_ context.Context, _ domain.Identity, _ string) (bool, error) {
	return true, nil
}

// AllowAll is used when guest access is enabled.
type AllowAll struct{}

func (AllowAll) CanCreate(context.Context, domain.Identity, string) (bool, error) {
	return true, nil
}

func (AllowAll) CanJoin(context.Context, domain.Identity, string) (bool, error) {
	return true, nil
}
