package repository

import (
	"kodisha/internal/models"

	"gorm.io/gorm"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) UnitByID(id uint) (*models.Unit, error) {
	var u models.Unit
	err := r.db.Preload("Owner").Preload("Building").Preload("Building.Admin").First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PropertyRepository) BuildingByID(id uint) (*models.Building, error) {
	var b models.Building
	err := r.db.Preload("Admin").First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PropertyRepository) CreateBuilding(b *models.Building) error {
	return r.db.Create(b).Error
}

func (r *PropertyRepository) CreateUnit(u *models.Unit) error {
	return r.db.Create(u).Error
}

func (r *PropertyRepository) UnitIDsByOwner(ownerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Unit{}).Where("owner_id = ?", ownerID).Pluck("id", &ids).Error
	return ids, err
}
