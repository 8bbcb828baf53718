package port

import (
	"context"

	"github.com/rl1809/accommodator/internal/core/domain"
)

type CatalogRepository interface {
	// ListAvailable returns units with remaining capacity, ordered by ID
	ListAvailable(ctx context.Context) ([]domain.Unit, error)

	// GetUnit returns nil, nil when the unit does not exist
	GetUnit(ctx context.Context, id int64) (*domain.Unit, error)
}
