package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"gorm.io/gorm"
)

// InventoryService keeps the car and client records invoices and plans
// point at.
type InventoryService struct {
	store   Store
	cars    repository.CarRepository
	clients repository.ClientRepository
}

func NewInventoryService(store Store, cars repository.CarRepository, clients repository.ClientRepository) *InventoryService {
	return &InventoryService{store: store, cars: cars, clients: clients}
}

func (s *InventoryService) CreateCar(ctx context.Context, car *models.Car, actor models.Actor) error {
	car.Brand = strings.TrimSpace(car.Brand)
	car.Model = strings.TrimSpace(car.Model)
	car.Chassis = strings.ToUpper(strings.TrimSpace(car.Chassis))
	car.Price = models.RoundMoney(car.Price)

	switch {
	case car.Brand == "" || car.Model == "":
		return invalid("model", "brand and model are required")
	case car.Chassis == "":
		return invalid("chassis", "is required")
	case car.Price.IsNegative():
		return invalid("price", "cannot be negative")
	}
	if car.Status == "" {
		car.Status = models.CarStatusAvailable
	}
	car.ID = 0
	car.CreatedBy = actor.ID

	return s.store.Write(ctx, func(ctx context.Context) error {
		return classify("create car "+car.Chassis, s.cars.Create(ctx, car))
	})
}

func (s *InventoryService) FindCar(ctx context.Context, id uint) (*models.Car, error) {
	var car *models.Car
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		car, err = s.cars.FindByID(ctx, id)
		return classify(fmt.Sprintf("car %d", id), err)
	})
	return car, err
}

func (s *InventoryService) ListCars(ctx context.Context, query *repository.ListQuery) ([]models.Car, int64, error) {
	var cars []models.Car
	var total int64
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		cars, total, err = s.cars.List(ctx, query)
		return classify("list cars", err)
	})
	return cars, total, err
}

func (s *InventoryService) CreateClient(ctx context.Context, client *models.Client, actor models.Actor) error {
	client.Name = strings.TrimSpace(client.Name)
	client.Phone = strings.TrimSpace(client.Phone)

	switch {
	case client.Name == "":
		return invalid("name", "is required")
	case client.Phone == "":
		return invalid("phone", "is required")
	}
	if client.Status == "" {
		client.Status = models.StatusActive
	}
	client.ID = 0
	client.CreatedBy = actor.ID

	return s.store.Write(ctx, func(ctx context.Context) error {
		return classify("create client "+client.Phone, s.clients.Create(ctx, client))
	})
}

func (s *InventoryService) FindClient(ctx context.Context, id uint) (*models.Client, error) {
	var client *models.Client
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		client, err = s.clients.FindByID(ctx, id)
		return classify(fmt.Sprintf("client %d", id), err)
	})
	return client, err
}

func (s *InventoryService) ListClients(ctx context.Context, query *repository.ListQuery) ([]models.Client, int64, error) {
	var clients []models.Client
	var total int64
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		clients, total, err = s.clients.List(ctx, query)
		return classify("list clients", err)
	})
	return clients, total, err
}

// requireParties checks that the car and client of a sale exist. It runs
// inside the caller's write transaction.
func (s *InventoryService) requireParties(ctx context.Context, carID, clientID uint) error {
	if _, err := s.cars.FindByID(ctx, carID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("car_id", fmt.Sprintf("car %d does not exist", carID))
		}
		return classify("find car", err)
	}
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("client_id", fmt.Sprintf("client %d does not exist", clientID))
		}
		return classify("find client", err)
	}
	return nil
}

func (s *InventoryService) markSold(ctx context.Context, carID uint) error {
	return classify("mark car sold", s.cars.UpdateStatus(ctx, carID, models.CarStatusSold))
}
