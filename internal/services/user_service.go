package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/repository"
)

// CreateUserInput describes a new operator account
type CreateUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// UserService handles user-related business logic
type UserService struct {
	store Store
	repo  repository.UserRepository
	audit *audit.Trail
}

func NewUserService(store Store, repo repository.UserRepository, trail *audit.Trail) *UserService {
	return &UserService{store: store, repo: repo, audit: trail}
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user *models.User
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByID(ctx, id)
		return classify(fmt.Sprintf("user %d", id), err)
	})
	return user, err
}

func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		users, total, err = s.repo.List(ctx, query)
		return classify("list users", err)
	})
	return users, total, err
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput, actor models.Actor) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))

	var err error
	switch {
	case in.Username == "":
		err = invalid("username", "is required")
	case len(in.Password) < 6:
		err = invalid("password", "must be at least 6 characters")
	case !models.IsValidRole(in.Role):
		err = invalid("role", "must be admin, sales or accountant")
	}

	var user *models.User
	if err == nil {
		var hash string
		if hash, err = HashPassword(in.Password); err == nil {
			user = &models.User{
				Username:          in.Username,
				EncryptedPassword: hash,
				FullName:          strings.TrimSpace(in.FullName),
				Role:              in.Role,
			}
			err = s.store.Write(ctx, func(ctx context.Context) error {
				return classify("create user "+in.Username, s.repo.Create(ctx, user))
			})
		}
	}

	s.audit.Record(ctx, actor, audit.EventUserCreate,
		fmt.Sprintf("user %s with role %s", in.Username, in.Role), err)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetActive enables or disables a user's login
func (s *UserService) SetActive(ctx context.Context, id uint, active bool, actor models.Actor) error {
	status := models.StatusInactive
	if active {
		status = models.StatusActive
	}
	err := s.store.Write(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return classify(fmt.Sprintf("user %d", id), err)
		}
		return classify("update user status", s.repo.UpdateStatus(ctx, id, status))
	})
	s.audit.Record(ctx, actor, audit.EventUserUpdate, fmt.Sprintf("user %d set %s", id, status), err)
	return err
}
