package service

import (
	"context"
	"errors"
	"strings"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/pkg/validator"

	"github.com/google/uuid"
)

type UserService interface {
	CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, actor Actor, id uuid.UUID, in UpdateUserInput) (*model.UserResponse, error)
	DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) error
	GetAllUsers(ctx context.Context, actor Actor) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, actor Actor, id uuid.UUID) (*model.UserResponse, error)
	UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*model.UserResponse, error)
}

type CreateUserInput struct {
	Name     string     `json:"name" validate:"required,max=255"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=admin staff"`
}

type UpdateUserInput struct {
	Name     string     `json:"name" validate:"required,max=255"`
	Email    string     `json:"email" validate:"required,email"`
	Password *string    `json:"password,omitempty" validate:"omitempty,min=8"` // Optional
	Role     model.Role `json:"role" validate:"required,oneof=admin staff"`
}

// ProfileInput is what users may change about themselves. Role is not here.
type ProfileInput struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Email        string  `json:"email" validate:"required,email"`
	Password     *string `json:"password,omitempty" validate:"omitempty,min=8"`
	ProfilePhoto string  `json:"profile_photo" validate:"max=255"`
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*model.UserResponse, error) {
	if err := actor.require(model.CapUserManage); err != nil {
		return nil, err
	}
	in.Email = strings.TrimSpace(in.Email)
	if msg := validator.First(&in); msg != "" {
		return nil, validationf("%s", msg)
	}
	if in.Role == "" {
		in.Role = model.RoleStaff
	}

	if err := s.uniqueEmail(ctx, in.Email, uuid.Nil); err != nil {
		return nil, err
	}

	user := &model.User{Name: in.Name, Email: in.Email, Role: in.Role}
	user.CreatedBy = actor.audit()
	user.UpdatedBy = actor.audit()
	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, repoErr(err, "Email")
	}

	response := user.ToResponse()
	return &response, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor Actor, id uuid.UUID, in UpdateUserInput) (*model.UserResponse, error) {
	if err := actor.require(model.CapUserManage); err != nil {
		return nil, err
	}
	in.Email = strings.TrimSpace(in.Email)
	if msg := validator.First(&in); msg != "" {
		return nil, validationf("%s", msg)
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "User")
	}
	if err := s.uniqueEmail(ctx, in.Email, id); err != nil {
		return nil, err
	}

	user.Name = in.Name
	user.Email = in.Email
	user.Role = in.Role
	user.UpdatedBy = actor.audit()
	if in.Password != nil && *in.Password != "" {
		if err := user.SetPassword(*in.Password); err != nil {
			return nil, err
		}
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, repoErr(err, "Email")
	}

	response := user.ToResponse()
	return &response, nil
}

func (s *userService) DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := actor.require(model.CapUserManage); err != nil {
		return err
	}
	if id == actor.ID {
		return validationf("You cannot delete your own account")
	}
	return repoErr(s.users.Delete(ctx, id, actor.audit()), "User")
}

func (s *userService) GetAllUsers(ctx context.Context, actor Actor) ([]model.UserResponse, error) {
	if err := actor.require(model.CapUserManage); err != nil {
		return nil, err
	}
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(ctx context.Context, actor Actor, id uuid.UUID) (*model.UserResponse, error) {
	if id != actor.ID {
		if err := actor.require(model.CapUserManage); err != nil {
			return nil, err
		}
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "User")
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*model.UserResponse, error) {
	in.Email = strings.TrimSpace(in.Email)
	if msg := validator.First(&in); msg != "" {
		return nil, validationf("%s", msg)
	}

	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, repoErr(err, "User")
	}
	if err := s.uniqueEmail(ctx, in.Email, actor.ID); err != nil {
		return nil, err
	}

	user.Name = in.Name
	user.Email = in.Email
	user.ProfilePhoto = in.ProfilePhoto
	user.UpdatedBy = actor.audit()
	if in.Password != nil && *in.Password != "" {
		if err := user.SetPassword(*in.Password); err != nil {
			return nil, err
		}
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, repoErr(err, "Email")
	}

	response := user.ToResponse()
	return &response, nil
}

func (s *userService) uniqueEmail(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return validationf("Email already exists")
	}
	return nil
}
