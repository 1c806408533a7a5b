package repository

import (
	"context"
	"time"

	"doctor-listing-service/internal/domain/entity"

	"github.com/google/uuid"
)

// ListingCacheRepository keeps facet lists and session snapshots outside the
// process. A miss returns nil with no error. DeleteSession reports whether a
// snapshot existed.
type ListingCacheRepository interface {
	GetFacets(ctx context.Context) (*entity.ListingFacets, error)
	SetFacets(ctx context.Context, facets *entity.ListingFacets, ttl time.Duration) error
	SaveSession(ctx context.Context, sessionID uuid.UUID, state entity.ListingState, ttl time.Duration) error
	LoadSession(ctx context.Context, sessionID uuid.UUID) (*entity.ListingState, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) (bool, error)
}
