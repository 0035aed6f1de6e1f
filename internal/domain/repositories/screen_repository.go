package repositories

import (
	"context"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

// ScreenRepository persists screens
type ScreenRepository interface {
	Create(ctx context.Context, screen *entities.Screen) error
	GetByID(ctx context.Context, id string) (*entities.Screen, error)
	List(ctx context.Context) ([]*entities.Screen, error)
	Update(ctx context.Context, screen *entities.Screen) error
	// Delete removes the screen and every widget on it
	Delete(ctx context.Context, id string) error
}
