package repository

import (
	"context"

	"github.com/sjperalta/dealer-ledger/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	List(ctx context.Context, query *ListQuery) ([]models.User, int64, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db Connector
}

// NewUserRepository creates a new user repository
func NewUserRepository(db Connector) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.Conn(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.Conn(ctx).
		Where("LOWER(username) = LOWER(?)", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.Conn(ctx).Create(user).Error
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.Conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status).Error
}

func (r *userRepository) List(ctx context.Context, query *ListQuery) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	db := r.db.Conn(ctx).Model(&models.User{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("LOWER(username) LIKE LOWER(?) OR LOWER(full_name) LIKE LOWER(?)", search, search)
	}

	if query.Filters["role"] != "" {
		db = db.Where("role = ?", query.Filters["role"])
	}

	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = query.apply(db, "username ASC")

	err := db.Find(&users).Error
	return users, total, err
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Conn(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}
