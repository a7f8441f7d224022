package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an operator account
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	EncryptedPassword string    `gorm:"column:encrypted_password;not null" json:"-"`
	FullName          string    `gorm:"size:100" json:"full_name"`
	Role              string    `gorm:"size:20;not null" json:"role"`
	Status            string    `gorm:"size:20;not null" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleSales
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return nil
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if user status is active
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Can reports whether the user's role grants the permission
func (u *User) Can(p Permission) bool {
	return RoleCan(u.Role, p)
}

// Role constants
const (
	RoleAdmin      = "admin"
	RoleSales      = "sales"
	RoleAccountant = "accountant"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Permission is a capability flag checked on routes
type Permission string

const (
	PermCars         Permission = "cars"
	PermClients      Permission = "clients"
	PermContracts    Permission = "contracts"
	PermInvoices     Permission = "invoices"
	PermTransactions Permission = "transactions"
	PermReports      Permission = "reports"
	PermBackup       Permission = "backup"
	PermLogs         Permission = "logs"
	PermUsers        Permission = "users"
)

var rolePermissions = map[string]map[Permission]bool{
	RoleAdmin: {
		PermCars: true, PermClients: true, PermContracts: true, PermInvoices: true,
		PermTransactions: true, PermReports: true, PermBackup: true, PermLogs: true, PermUsers: true,
	},
	RoleSales: {
		PermCars: true, PermClients: true, PermContracts: true, PermInvoices: true,
		PermTransactions: true, PermReports: true,
	},
	RoleAccountant: {
		PermClients: true, PermTransactions: true, PermReports: true, PermLogs: true,
	},
}

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// RoleCan reports whether role grants the permission
func RoleCan(role string, p Permission) bool {
	return rolePermissions[role][p]
}

// PermissionsFor lists the permissions of a role
func PermissionsFor(role string) []Permission {
	var out []Permission
	for _, p := range []Permission{PermCars, PermClients, PermContracts, PermInvoices, PermTransactions, PermReports, PermBackup, PermLogs, PermUsers} {
		if rolePermissions[role][p] {
			out = append(out, p)
		}
	}
	return out
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID          uint         `json:"id"`
	Username    string       `json:"username"`
	FullName    string       `json:"full_name"`
	Role        string       `json:"role"`
	Status      string       `json:"status"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Role:        u.Role,
		Status:      u.Status,
		Permissions: PermissionsFor(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

// Actor identifies who performed an operation
type Actor struct {
	ID   uint
	Name string
}

// SystemActor is used for scheduled jobs and CLI maintenance
var SystemActor = Actor{ID: 0, Name: "system"}

// ActorOf returns the actor for a user
func (u *User) ActorOf() Actor {
	return Actor{ID: u.ID, Name: u.Username}
}
