package service

import (
	"context"

	"github.com/google/uuid"
)

// MembershipOracle answers project membership questions. It is the seam to
// the project service; chat never stores project membership itself.
type MembershipOracle interface {
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	IsOwner(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

// UserLookup resolves display names for read-model assembly. Lookups are a
// presentation concern: when they fail, reads proceed with bare ids.
type UserLookup interface {
	DisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}
