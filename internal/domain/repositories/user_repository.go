package repositories

import (
	"context"

	"qomex.backend/internal/domain/entities"
	"qomex.backend/pkg/utils"
)

// UserRepository defines user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	GetByLogin(ctx context.Context, login string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByClickID(ctx context.Context, clickID string) (*entities.User, error)
	GetByTraderID(ctx context.Context, traderID string) (*entities.User, error)
	GetByResetToken(ctx context.Context, token string) (*entities.User, error)
	ClickIDExists(ctx context.Context, clickID string) (bool, error)
	Update(ctx context.Context, user *entities.User) error
	List(ctx context.Context, filter entities.UserListFilter, pagination utils.PaginationParams) ([]*entities.User, int64, error)
}
