package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sjperalta/dealer-ledger/internal/audit"
	"github.com/sjperalta/dealer-ledger/internal/config"
	"github.com/sjperalta/dealer-ledger/internal/models"
	"github.com/sjperalta/dealer-ledger/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles authentication operations
type AuthService struct {
	store    Store
	userRepo repository.UserRepository
	audit    *audit.Trail
	cfg      *config.Config
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(store Store, userRepo repository.UserRepository, trail *audit.Trail, cfg *config.Config) *AuthService {
	return &AuthService{
		store:    store,
		userRepo: userRepo,
		audit:    trail,
		cfg:      cfg,
		now:      time.Now,
	}
}

// LoginResult represents the result of a login attempt
type LoginResult struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	User      models.UserResponse `json:"user"`
}

// Login authenticates a user and returns a signed token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user *models.User
	err := s.store.Read(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.FindByUsername(ctx, username)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		return classify("find user", err)
	})

	actor := models.Actor{Name: username}
	if user != nil {
		actor = user.ActorOf()
	}

	if err == nil {
		switch {
		case !VerifyPassword(password, user.EncryptedPassword):
			err = ErrInvalidCredentials
		case !user.IsActive():
			err = ErrInactiveUser
		}
	}
	if err != nil {
		s.audit.Record(ctx, actor, audit.EventLogin, "login", err)
		return nil, err
	}

	expiresAt := s.now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour)
	token, err := s.generateJWT(user, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.audit.Record(ctx, actor, audit.EventLogin, "login", nil)
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.ToResponse(),
	}, nil
}

// generateJWT creates a new JWT token for a user
func (s *AuthService) generateJWT(user *models.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      expiresAt.Unix(),
		"iat":      s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// SeedDefaultUsers creates one user per role when the users table is
// empty. It returns how many users were created.
func (s *AuthService) SeedDefaultUsers(ctx context.Context) (int, error) {
	if s.cfg.SeedPassword == "" {
		return 0, nil
	}
	hash, err := HashPassword(s.cfg.SeedPassword)
	if err != nil {
		return 0, err
	}

	created := 0
	err = s.store.Write(ctx, func(ctx context.Context) error {
		count, err := s.userRepo.Count(ctx)
		if err != nil {
			return classify("count users", err)
		}
		if count > 0 {
			return nil
		}
		for _, u := range []models.User{
			{Username: "admin", FullName: "Administrator", Role: models.RoleAdmin},
			{Username: "sales", FullName: "Sales", Role: models.RoleSales},
			{Username: "accountant", FullName: "Accountant", Role: models.RoleAccountant},
		} {
			u.EncryptedPassword = hash
			if err := s.userRepo.Create(ctx, &u); err != nil {
				return classify("create user "+u.Username, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if created > 0 {
		s.audit.Record(ctx, models.SystemActor, audit.EventUserCreate,
			fmt.Sprintf("seeded %d default users", created), nil)
	}
	return created, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifyPassword compares a password with a hash
func VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
