package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// User represents an authenticated user in the system
type User struct {
	BaseModel
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email,where:deleted_at IS NULL" json:"email"`
	Password     string `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	Role         Role   `gorm:"type:varchar(20);not null;default:'staff'" json:"role"`
	ProfilePhoto string `gorm:"type:varchar(255)" json:"profile_photo,omitempty"`
	TokenVersion string `gorm:"type:varchar(255);default:''" json:"-"` // For single session enforcement
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// HasCapability checks if the user's role grants a specific capability
func (u *User) HasCapability(c Capability) bool {
	return RoleHas(u.Role, c)
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
func (u *User) IsStaff() bool { return u.Role == RoleStaff }

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	ProfilePhoto string    `json:"profile_photo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		ProfilePhoto: u.ProfilePhoto,
		CreatedAt:    u.CreatedAt,
	}
}
