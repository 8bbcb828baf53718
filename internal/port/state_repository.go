package port

import (
	"context"

	"github.com/rl1809/accommodator/internal/core/domain"
)

type StateRepository interface {
	// GetState returns an idle state when nothing is stored for the user
	GetState(ctx context.Context, userID int64) (domain.ConversationState, error)

	SaveState(ctx context.Context, userID int64, state domain.ConversationState) error

	ClearState(ctx context.Context, userID int64) error
}
