package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"poolride/internal/models"
	"poolride/internal/repositories/interfaces"
	"poolride/internal/utils"
	"poolride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, request *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateDeviceToken(ctx context.Context, userID primitive.ObjectID, deviceToken string) error
}

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string `json:"last_name" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Password  string `json:"password" validate:"required,min=8"`
	UserType  string `json:"user_type" validate:"required,oneof=rider driver"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User   *models.User     `json:"user"`
	Tokens *utils.TokenPair `json:"tokens"`
}

type authService struct {
	userRepo  interfaces.UserRepository
	jwtSecret string
	logger    *logger.Logger
}

func NewAuthService(userRepo interfaces.UserRepository, jwtSecret string, log *logger.Logger) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (s *authService) Register(ctx context.Context, request *RegisterRequest) (*AuthResponse, error) {
	if existing, _ := s.userRepo.GetByEmail(ctx, request.Email); existing != nil {
		return nil, errors.New(utils.ErrUserExists)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Email:     request.Email,
		Phone:     request.Phone,
		Password:  string(hashed),
		UserType:  models.UserType(request.UserType),
		Status:    models.UserStatusActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := utils.GenerateTokenPair(user.ID, string(user.UserType), user.Email, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.logger.WithField("user_id", user.ID.Hex()).Info("User registered")

	return &AuthResponse{User: user, Tokens: tokens}, nil
}

func (s *authService) Login(ctx context.Context, request *LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, request.Email)
	if err != nil {
		return nil, errors.New(utils.ErrInvalidCredentials)
	}

	if user.Status != models.UserStatusActive {
		return nil, errors.New(utils.ErrForbidden)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.Password)); err != nil {
		return nil, errors.New(utils.ErrInvalidCredentials)
	}

	tokens, err := utils.GenerateTokenPair(user.ID, string(user.UserType), user.Email, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	now := time.Now()
	s.userRepo.Update(ctx, user.ID, map[string]interface{}{"last_login_at": now})
	user.LastLoginAt = &now

	return &AuthResponse{User: user, Tokens: tokens}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	tokens, err := utils.RefreshAccessToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, errors.New(utils.ErrInvalidToken)
	}

	claims, err := utils.ValidateToken(tokens.AccessToken, s.jwtSecret)
	if err != nil {
		return nil, errors.New(utils.ErrInvalidToken)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, Tokens: tokens}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *authService) UpdateDeviceToken(ctx context.Context, userID primitive.ObjectID, deviceToken string) error {
	return s.userRepo.Update(ctx, userID, map[string]interface{}{"device_token": deviceToken})
}
