package repositories

import (
	"context"

	"qomex.backend/internal/domain/entities"
	"qomex.backend/pkg/utils"
)

// PostbackLogRepository defines postback log operations
type PostbackLogRepository interface {
	Create(ctx context.Context, log *entities.PostbackLog) error
	GetByID(ctx context.Context, id int64) (*entities.PostbackLog, error)
	// FindPending returns unprocessed logs carrying clickID, plus unprocessed logs
	// with traderID and an empty click_id when traderID is non-empty.
	FindPending(ctx context.Context, clickID, traderID string) ([]*entities.PostbackLog, error)
	// MarkProcessed flips processed false->true. It returns false when another
	// caller already claimed the row.
	MarkProcessed(ctx context.Context, log *entities.PostbackLog) (bool, error)
	List(ctx context.Context, filter entities.PostbackListFilter, pagination utils.PaginationParams) ([]*entities.PostbackLog, int64, error)
}
