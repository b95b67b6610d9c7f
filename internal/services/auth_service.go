package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired     = fmt.Errorf("%w: username is required", ErrValidation)
	ErrPasswordTooShort     = fmt.Errorf("%w: password too short", ErrValidation)
	ErrUsernameTaken        = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrInvalidCredentials   = fmt.Errorf("%w: invalid username or password", ErrUnauthenticated)
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Signup creates a new user.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToCreateUser, err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// Principal resolves the principal for an authenticated user id.
func (s *AuthService) Principal(userID uint64) (Principal, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Principal{}, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
		}
		return Principal{}, err
	}
	return PrincipalFromUser(user), nil
}

// Capabilities changes a user's administrative flags. Nil fields are left
// unchanged.
type Capabilities struct {
	Staff     *bool
	Superuser *bool
	Manager   *bool
}

// GrantCapabilities updates the flags of the named user.
func (s *AuthService) GrantCapabilities(username string, caps Capabilities) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	fields := map[string]interface{}{}
	if caps.Staff != nil {
		fields["is_staff"] = *caps.Staff
	}
	if caps.Superuser != nil {
		fields["is_superuser"] = *caps.Superuser
	}
	if caps.Manager != nil {
		fields["can_manage_tasks"] = *caps.Manager
	}
	if len(fields) == 0 {
		return user, nil
	}

	if err := s.userRepo.UpdateFields(user.ID, fields); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.GetUser(user.ID)
}
