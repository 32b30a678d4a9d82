package models

import (
	"time"

	"kodisha/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:128;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone        string         `gorm:"size:32" json:"phone"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // ADMIN | OWNER | TENANT
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool  { return u.Role == domain.RoleAdmin }
func (u *User) IsOwner() bool  { return u.Role == domain.RoleOwner }
func (u *User) IsTenant() bool { return u.Role == domain.RoleTenant }

// ContactAddress returns the best off-platform contact for the user,
// preferring email over phone.
func (u *User) ContactAddress() string {
	if u.Email != "" {
		return u.Email
	}
	return u.Phone
}
