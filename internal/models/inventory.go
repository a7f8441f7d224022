package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Car status constants
const (
	CarStatusAvailable = "available"
	CarStatusSold      = "sold"
)

// Car is a vehicle in inventory
type Car struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Brand     string          `gorm:"size:50;not null" json:"brand"`
	Model     string          `gorm:"size:50;not null" json:"model"`
	Year      int             `json:"year"`
	Chassis   string          `gorm:"size:50;uniqueIndex" json:"chassis"`
	Engine    string          `gorm:"size:50" json:"engine"`
	Color     string          `gorm:"size:30" json:"color"`
	Price     decimal.Decimal `gorm:"type:decimal(15,2)" json:"price"`
	Status    string          `gorm:"size:20;not null;default:'available'" json:"status"`
	CreatedBy uint            `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Car
func (Car) TableName() string {
	return "cars"
}

// AfterFind normalizes amounts read back from drivers that store floats
func (c *Car) AfterFind(tx *gorm.DB) error {
	c.Price = RoundMoney(c.Price)
	return nil
}

// DisplayName is the "Brand Model Year" label printed on documents
func (c *Car) DisplayName() string {
	if c.Year == 0 {
		return fmt.Sprintf("%s %s", c.Brand, c.Model)
	}
	return fmt.Sprintf("%s %s %d", c.Brand, c.Model, c.Year)
}

// Client is a customer of the dealership
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:30;uniqueIndex" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	Status    string    `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Client
func (Client) TableName() string {
	return "clients"
}
