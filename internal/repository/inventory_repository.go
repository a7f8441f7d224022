package repository

import (
	"context"

	"github.com/sjperalta/dealer-ledger/internal/models"
)

// CarRepository defines the interface for car data access
type CarRepository interface {
	Create(ctx context.Context, car *models.Car) error
	FindByID(ctx context.Context, id uint) (*models.Car, error)
	List(ctx context.Context, query *ListQuery) ([]models.Car, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
}

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, id uint) (*models.Client, error)
	List(ctx context.Context, query *ListQuery) ([]models.Client, int64, error)
}

type carRepository struct {
	db Connector
}

// NewCarRepository creates a new car repository
func NewCarRepository(db Connector) CarRepository {
	return &carRepository{db: db}
}

func (r *carRepository) Create(ctx context.Context, car *models.Car) error {
	return r.db.Conn(ctx).Create(car).Error
}

func (r *carRepository) FindByID(ctx context.Context, id uint) (*models.Car, error) {
	var car models.Car
	if err := r.db.Conn(ctx).First(&car, id).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

func (r *carRepository) List(ctx context.Context, query *ListQuery) ([]models.Car, int64, error) {
	var cars []models.Car
	var total int64

	db := r.db.Conn(ctx).Model(&models.Car{})
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("LOWER(brand) LIKE LOWER(?) OR LOWER(model) LIKE LOWER(?) OR LOWER(chassis) LIKE LOWER(?)",
			search, search, search)
	}
	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.apply(db, "id DESC").Find(&cars).Error
	return cars, total, err
}

func (r *carRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.Conn(ctx).Model(&models.Car{}).Where("id = ?", id).Update("status", status).Error
}

type clientRepository struct {
	db Connector
}

// NewClientRepository creates a new client repository
func NewClientRepository(db Connector) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.Conn(ctx).Create(client).Error
}

func (r *clientRepository) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := r.db.Conn(ctx).First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) List(ctx context.Context, query *ListQuery) ([]models.Client, int64, error) {
	var clients []models.Client
	var total int64

	db := r.db.Conn(ctx).Model(&models.Client{})
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("LOWER(name) LIKE LOWER(?) OR phone LIKE ?", search, search)
	}
	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.apply(db, "name ASC").Find(&clients).Error
	return clients, total, err
}
