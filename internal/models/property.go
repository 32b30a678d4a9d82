package models

import (
	"time"

	"gorm.io/gorm"
)

type Building struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:128;not null" json:"name"`
	Address   string         `gorm:"size:255" json:"address"`
	AdminID   *uint          `gorm:"index" json:"admin_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Admin *User `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
}

func (Building) TableName() string { return "buildings" }

type Unit struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Label      string         `gorm:"size:64;not null" json:"label"` // e.g. "B-12"
	BuildingID *uint          `gorm:"index" json:"building_id"`
	OwnerID    *uint          `gorm:"index" json:"owner_id"`
	TenantID   *uint          `gorm:"index" json:"tenant_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Building *Building `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
	Owner    *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (Unit) TableName() string { return "units" }
