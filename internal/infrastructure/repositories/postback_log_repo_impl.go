package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/infrastructure/models"
	"qomex.backend/pkg/utils"
)

// PostbackLogRepository implements postback log operations
type PostbackLogRepository struct {
	db *gorm.DB
}

// NewPostbackLogRepository creates a new postback log repository
func NewPostbackLogRepository(db *gorm.DB) *PostbackLogRepository {
	return &PostbackLogRepository{db: db}
}

// Create appends a log row
func (r *PostbackLogRepository) Create(ctx context.Context, log *entities.PostbackLog) error {
	m := toPostbackLogModel(log)
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return err
	}
	log.ID = m.ID
	log.CreatedAt = m.CreatedAt
	return nil
}

// GetByID gets a log by ID
func (r *PostbackLogRepository) GetByID(ctx context.Context, id int64) (*entities.PostbackLog, error) {
	var m models.PostbackLog
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toPostbackLogEntity(&m), nil
}

// FindPending loads unprocessed logs for a click id, plus trader-id-only logs
func (r *PostbackLogRepository) FindPending(ctx context.Context, clickID, traderID string) ([]*entities.PostbackLog, error) {
	if clickID == "" && traderID == "" {
		return []*entities.PostbackLog{}, nil
	}

	query := GetDB(ctx, r.db).Model(&models.PostbackLog{}).Where("processed = ?", false)
	switch {
	case clickID != "" && traderID != "":
		query = query.Where("(click_id = ?) OR ((click_id = '' OR click_id IS NULL) AND trader_id = ?)", clickID, traderID)
	case clickID != "":
		query = query.Where("click_id = ?", clickID)
	default:
		query = query.Where("(click_id = '' OR click_id IS NULL) AND trader_id = ?", traderID)
	}

	var logModels []models.PostbackLog
	if err := query.Order("created_at ASC, id ASC").Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]*entities.PostbackLog, 0, len(logModels))
	for i := range logModels {
		logs = append(logs, toPostbackLogEntity(&logModels[i]))
	}
	return logs, nil
}

// MarkProcessed claims an unprocessed row. Only the caller that flips the flag gets true.
func (r *PostbackLogRepository) MarkProcessed(ctx context.Context, log *entities.PostbackLog) (bool, error) {
	updates := map[string]interface{}{
		"processed":    true,
		"user_id":      log.UserID.Ptr(),
		"processed_at": log.ProcessedAt.Ptr(),
	}
	result := GetDB(ctx, r.db).Model(&models.PostbackLog{}).
		Where("id = ? AND processed = ?", log.ID, false).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// List lists logs newest first, optionally filtered by search text and processed flag
func (r *PostbackLogRepository) List(ctx context.Context, filter entities.PostbackListFilter, pagination utils.PaginationParams) ([]*entities.PostbackLog, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.PostbackLog{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		term := "%" + search + "%"
		query = query.Where("click_id LIKE ? OR trader_id LIKE ? OR event LIKE ?", term, term, term)
	}
	if filter.Processed != nil {
		query = query.Where("processed = ?", *filter.Processed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logModels []models.PostbackLog
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.Limit).Offset(pagination.Offset()).Find(&logModels).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]*entities.PostbackLog, 0, len(logModels))
	for i := range logModels {
		logs = append(logs, toPostbackLogEntity(&logModels[i]))
	}
	return logs, total, nil
}

func toPostbackLogModel(l *entities.PostbackLog) *models.PostbackLog {
	return &models.PostbackLog{
		ID:          l.ID,
		Event:       l.Event,
		ClickID:     l.ClickID,
		TraderID:    l.TraderID,
		Amount:      l.Amount,
		Currency:    l.Currency,
		Raw:         l.Raw,
		Processed:   l.Processed,
		UserID:      l.UserID.Ptr(),
		CreatedAt:   l.CreatedAt,
		ProcessedAt: l.ProcessedAt.Ptr(),
	}
}

func toPostbackLogEntity(m *models.PostbackLog) *entities.PostbackLog {
	return &entities.PostbackLog{
		ID:          m.ID,
		Event:       m.Event,
		ClickID:     m.ClickID,
		TraderID:    m.TraderID,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Raw:         m.Raw,
		Processed:   m.Processed,
		UserID:      null.Int64FromPtr(m.UserID),
		CreatedAt:   m.CreatedAt,
		ProcessedAt: null.TimeFromPtr(m.ProcessedAt),
	}
}
