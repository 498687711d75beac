package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/pkg/jwt"
	"go-warehouse-ws/pkg/validator"
)

var (
	ErrInvalidCredentials = &Error{Kind: ErrUnauthorized, Message: "invalid email or password"}
	ErrWrongPassword      = &Error{Kind: ErrValidation, Message: "current password is incorrect"}
	ErrSessionReplaced    = &Error{Kind: ErrUnauthorized, Message: "session expired (logged in on another device)"}
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ChangePassword(ctx context.Context, in ChangePasswordInput) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	// Authenticate resolves a bearer token to the acting user.
	Authenticate(ctx context.Context, tokenString string) (Actor, error)
}

type LoginResponse struct {
	Token        string             `json:"token"`
	User         model.UserResponse `json:"user"`
	Capabilities []model.Capability `json:"capabilities"`
}

type TokenValidationResponse struct {
	User         model.UserResponse `json:"user"`
	Capabilities []model.Capability `json:"capabilities"`
}

type ChangePasswordInput struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type authService struct {
	users  repository.UserRepository
	tokens *jwt.Manager
}

func NewAuthService(users repository.UserRepository, tokens *jwt.Manager) AuthService {
	return &authService{users: users, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	// 1. Find user by email
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Single Session: Generate New Token Version
	newTokenVersion := uuid.New().String()
	if err := s.users.UpdateTokenVersion(ctx, user.ID, newTokenVersion); err != nil {
		return nil, err
	}

	// 4. Generate JWT token with TokenVersion
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Name, string(user.Role), newTokenVersion)
	if err != nil {
		return nil, err
	}

	log.Printf("User %s logged in", user.Email)
	return &LoginResponse{
		Token:        token,
		User:         user.ToResponse(),
		Capabilities: model.RoleCapabilities[user.Role],
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if msg := validator.First(&in); msg != "" {
		return validationf("%s", msg)
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return repoErr(err, "User")
	}
	if !user.CheckPassword(in.OldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(in.NewPassword); err != nil {
		return err
	}
	// Invalidate existing sessions
	user.TokenVersion = uuid.New().String()
	return s.users.Update(ctx, user)
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	user, err := s.userFromToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return &TokenValidationResponse{
		User:         user.ToResponse(),
		Capabilities: model.RoleCapabilities[user.Role],
	}, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (Actor, error) {
	user, err := s.userFromToken(ctx, tokenString)
	if err != nil {
		return Actor{}, err
	}
	return ActorFromUser(user), nil
}

func (s *authService) userFromToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, &Error{Kind: ErrUnauthorized, Message: err.Error()}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &Error{Kind: ErrUnauthorized, Message: "user not found"}
		}
		return nil, err
	}

	// Check against DB for strict session (TokenVersion)
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return user, nil
}
