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

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var userSortColumns = map[string]string{
	"id":            "id",
	"created_at":    "created_at",
	"total_deposit": "total_deposit",
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	m := toUserModel(user)
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return mapWriteError(err)
	}
	user.ID = m.ID
	user.CreatedAt = m.CreatedAt
	user.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByLogin gets a user by login
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*entities.User, error) {
	return r.first(ctx, "login = ?", login)
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByClickID gets a user by click id
func (r *UserRepository) GetByClickID(ctx context.Context, clickID string) (*entities.User, error) {
	if clickID == "" {
		return nil, domainerrors.ErrNotFound
	}
	return r.first(ctx, "click_id = ?", clickID)
}

// GetByTraderID gets a user by trader id
func (r *UserRepository) GetByTraderID(ctx context.Context, traderID string) (*entities.User, error) {
	if traderID == "" {
		return nil, domainerrors.ErrNotFound
	}
	return r.first(ctx, "trader_id = ?", traderID)
}

// GetByResetToken gets the user holding an issued password reset token
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, domainerrors.ErrNotFound
	}
	return r.first(ctx, "reset_token = ?", token)
}

// ClickIDExists reports whether any user already holds clickID
func (r *UserRepository) ClickIDExists(ctx context.Context, clickID string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&models.User{}).Where("click_id = ?", clickID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update writes every mutable column of the user
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	m := toUserModel(user)
	updates := map[string]interface{}{
		"login":            m.Login,
		"email":            m.Email,
		"password_hash":    m.PasswordHash,
		"click_id":         m.ClickID,
		"trader_id":        m.TraderID,
		"first_deposit":    m.FirstDeposit,
		"total_deposit":    m.TotalDeposit,
		"deposit_verified": m.DepositVerified,
		"reset_token":      m.ResetToken,
		"updated_at":       user.UpdatedAt,
	}

	result := GetDB(ctx, r.db).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates)
	if result.Error != nil {
		return mapWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// List lists users matching the filter, newest first unless a sort is given
func (r *UserRepository) List(ctx context.Context, filter entities.UserListFilter, pagination utils.PaginationParams) ([]*entities.User, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.User{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(login) LIKE ? OR LOWER(email) LIKE ? OR trader_id LIKE ?", term, term, "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var userModels []models.User
	if err := query.Order(userOrder(filter.Sort)).Limit(pagination.Limit).Offset(pagination.Offset()).Find(&userModels).Error; err != nil {
		return nil, 0, err
	}

	users := make([]*entities.User, 0, len(userModels))
	for i := range userModels {
		users = append(users, toUserEntity(&userModels[i]))
	}
	return users, total, nil
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toUserEntity(&m), nil
}

func userOrder(sort string) string {
	sort = strings.TrimSpace(sort)
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = strings.TrimPrefix(sort, "-")
	}
	col, ok := userSortColumns[sort]
	if !ok {
		return "id DESC"
	}
	return col + " " + dir + ", id " + dir
}

func mapWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerrors.ErrAlreadyExists
	}
	// drivers without error translation still report the constraint by name
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return domainerrors.ErrAlreadyExists
	}
	return err
}

func toUserModel(u *entities.User) *models.User {
	m := &models.User{
		ID:              u.ID,
		Login:           u.Login,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		ClickID:         u.ClickID,
		FirstDeposit:    u.FirstDeposit,
		TotalDeposit:    u.TotalDeposit,
		DepositVerified: u.DepositVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if u.HasTraderID() {
		m.TraderID = u.TraderID.Ptr()
	}
	if u.ResetToken.Valid {
		m.ResetToken = u.ResetToken.Ptr()
	}
	return m
}

func toUserEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:              m.ID,
		Login:           m.Login,
		Email:           m.Email,
		PasswordHash:    m.PasswordHash,
		ClickID:         m.ClickID,
		TraderID:        null.StringFromPtr(m.TraderID),
		FirstDeposit:    m.FirstDeposit,
		TotalDeposit:    m.TotalDeposit,
		DepositVerified: m.DepositVerified,
		ResetToken:      null.StringFromPtr(m.ResetToken),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
