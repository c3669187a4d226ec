package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxBioLen  = 500
	maxNameLen = 50
)

// AuthService owns accounts: registration, credentials and profiles. Token
// issuing lives in the HTTP layer.
type AuthService struct {
	userRepo repository.UserRepository
	resetTTL time.Duration
	hashCost int
	now      func() time.Time
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

type LoginInput struct {
	// Login is an email address or a username.
	Login    string
	Password string
}

// UpdateProfileInput is a partial update; nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID    uint
	Username  *string
	FirstName *string
	LastName  *string
	Bio       *string
	Avatar    *string
}

type ChangePasswordInput struct {
	UserID          uint
	CurrentPassword string
	NewPassword     string
}

func NewAuthService(userRepo repository.UserRepository, resetTTL time.Duration) *AuthService {
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthService{
		userRepo: userRepo,
		resetTTL: resetTTL,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *AuthService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(b), nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if email == "" || username == "" || in.Password == "" {
		return nil, models.NewValidationError("Email, username, and password are required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	firstName, lastName, err := validateNames(in.FirstName, in.LastName)
	if err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}
	if existing, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Username already taken")
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Username:  username,
		Password:  hashed,
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleUser,
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("Email or username already registered")
		}
		return nil, err
	}
	return user, nil
}

// Login checks credentials and records the sign-in time.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	if strings.TrimSpace(in.Login) == "" || in.Password == "" {
		return nil, models.NewValidationError("Email or username and password are required")
	}

	user, err := s.userRepo.GetByLogin(ctx, in.Login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("Account is deactivated")
	}

	now := s.now().UTC()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ActiveUser loads the user behind an authenticated request.
func (s *AuthService) ActiveUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("User not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("Account is deactivated")
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	return s.ActiveUser(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetCredentials(ctx, in.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundMessage("User not found")
		}
		return nil, err
	}

	if in.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*in.Username))
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if username != user.Username {
			existing, err := s.userRepo.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, models.NewConflictError("Username already taken")
			}
			user.Username = username
		}
	}

	first, last := user.FirstName, user.LastName
	if in.FirstName != nil {
		first = *in.FirstName
	}
	if in.LastName != nil {
		last = *in.LastName
	}
	if user.FirstName, user.LastName, err = validateNames(first, last); err != nil {
		return nil, err
	}

	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if runeLen(bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = bio
	}
	if in.Avatar != nil {
		user.Avatar = strings.TrimSpace(*in.Avatar)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("Username already taken")
		}
		return nil, err
	}
	return user, nil
}

func validateNames(first, last string) (string, string, error) {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	if runeLen(first) > maxNameLen || runeLen(last) > maxNameLen {
		return "", "", models.NewValidationError("Names must be 50 characters or less")
	}
	return first, last, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return models.NewValidationError("Current password and new password are required")
	}
	user, err := s.userRepo.GetCredentials(ctx, in.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.NewNotFoundMessage("User not found")
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)) != nil {
		return models.NewValidationError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hashed, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	return s.userRepo.Update(ctx, user)
}

// ForgotPassword issues a reset token for an active account. Unknown emails
// return an empty token and no error so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", models.NewValidationError("Email is required")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive {
		return "", nil
	}

	token := uuid.NewString()
	expiry := s.now().UTC().Add(s.resetTTL)
	user.ResetToken = &token
	user.ResetTokenExpiry = &expiry
	if err := s.userRepo.Update(ctx, user); err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" || newPassword == "" {
		return models.NewValidationError("Token and new password are required")
	}
	user, err := s.userRepo.GetByResetToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return err
	}
	if user == nil || user.ResetTokenExpiry == nil || !s.now().Before(*user.ResetTokenExpiry) {
		return models.NewValidationError("Invalid or expired reset token")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.ResetToken = nil
	user.ResetTokenExpiry = nil
	return s.userRepo.Update(ctx, user)
}
