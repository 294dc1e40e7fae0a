package service

import (
	"context"
	"strings"

	"socialfeed/internal/models"
	"socialfeed/internal/repository"
	"socialfeed/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
	Bio       string
}

// UpdateProfileInput carries a partial update; nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID uint
	Bio    *string
	Avatar *string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, bcryptCost: bcrypt.DefaultCost}
}

// Register creates an account with a bcrypt-hashed password. No token is issued.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	bio := strings.TrimSpace(in.Bio)

	if username == "" || email == "" || in.Password == "" {
		return nil, models.NewValidationError("Username, email, and password are required")
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Password != in.Password2 {
		return nil, models.NewValidationError("Password fields didn't match")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateBio(bio); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("A user with that username already exists")
	}
	existing, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("A user with that email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Bio:      bio,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetProfile returns a user with follow counts and whether viewerID follows them.
func (s *UserService) GetProfile(ctx context.Context, id, viewerID uint) (*models.User, error) {
	return s.userRepo.GetProfile(ctx, id, viewerID)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetProfile(ctx, in.UserID, 0)
	if err != nil {
		return nil, err
	}

	bio, avatar := user.Bio, user.Avatar
	if in.Bio != nil {
		bio = strings.TrimSpace(*in.Bio)
		if err := validation.ValidateBio(bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if in.Avatar != nil {
		avatar = strings.TrimSpace(*in.Avatar)
	}

	if err := s.userRepo.UpdateProfile(ctx, in.UserID, bio, avatar); err != nil {
		return nil, err
	}
	return s.userRepo.GetProfile(ctx, in.UserID, 0)
}

// Suggestions lists users userID might want to follow.
func (s *UserService) Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	return s.userRepo.Suggestions(ctx, userID, limit)
}
