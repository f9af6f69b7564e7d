package models

import (
	"time"

	"hxstudio-auth/internal/core/domain"

	"gorm.io/gorm"
)

// User represents users table
type User struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Email           string    `gorm:"size:256;not null" json:"email"`
	NormalizedEmail string    `gorm:"uniqueIndex;size:256;not null" json:"-"`
	UserName        string    `gorm:"size:256;not null" json:"userName"`
	Name            string    `gorm:"size:50;not null" json:"name"`
	PhoneNumber     string    `gorm:"size:32" json:"phoneNumber"`
	PasswordHash    string    `gorm:"size:255;not null" json:"-"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// ToResponse converts the record to the client profile with its primary role
func (u *User) ToResponse(role string) *domain.User {
	return &domain.User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Role:        role,
		CreatedAt:   u.CreatedAt,
	}
}

// Role represents roles table. Name is stored upper-cased.
type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Role) TableName() string {
	return "roles"
}

// UserRole represents user_roles table. ID order is assignment order.
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_user_roles_user_role;size:36;not null" json:"userId"`
	RoleID    uint      `gorm:"uniqueIndex:idx_user_roles_user_role;not null" json:"roleId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Role      Role      `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// AutoMigrate creates or updates the identity tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Role{},
		&UserRole{},
	)
}
