package repository

import (
	"context"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
	FindAll(ctx context.Context) ([]model.User, error)
	UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return softDelete(ctx, r.db, &model.User{}, id, deletedBy)
}

func (r *userRepo) FindAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (r *userRepo) UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error {
	return translate(r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("token_version", version).Error)
}
