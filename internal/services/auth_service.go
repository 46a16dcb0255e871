package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yamacamp/backend/internal/models"
	"github.com/yamacamp/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is the single generic login failure. Unknown
// identity and wrong password are deliberately indistinguishable so the
// login form cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrUserExists reports a duplicate email or username at registration
var ErrUserExists = errors.New("that email or username is already taken")

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user.
	//
	// If the email or username is already taken, repositories.ErrDuplicate will be returned.
	// If some other error occurs during user creation, that error will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmailOrUsername retrieves a user by email or username.
	//
	// "login" parameter is used to retrieve a user by email or username.
	//
	// If user with such email or username does not exist, repositories.ErrNotFound will be returned together with "nil" value.
	GetByEmailOrUsername(ctx context.Context, login string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method ExistsByUsername checks if a user with such username exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// authService implements registration and credential authentication
type authService struct {
	userRepo UserRepository
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, logger *zap.Logger) *authService {
	return &authService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register creates a new user account with a salted bcrypt hash.
// Returns ErrUserExists when the email or username is already taken.
func (s *authService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	emailTaken, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		return nil, ErrUserExists
	}

	usernameTaken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		return nil, ErrUserExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(passwordHash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The existence checks race with concurrent registrations; the
		// unique index is the authority
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

// Authenticate verifies the credentials and returns the user.
// Any credential failure comes back as ErrInvalidCredentials.
func (s *authService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmailOrUsername(ctx, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
