package port

import (
	"context"

	"github.com/rl1809/accommodator/internal/core/domain"
)

type UserRepository interface {
	// GetByPlatformID returns nil, nil when the user is unknown
	GetByPlatformID(ctx context.Context, platformID int64) (*domain.User, error)

	CreateUser(ctx context.Context, user domain.User) error
}
