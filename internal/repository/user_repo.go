package repository

import (
	"kodisha/internal/domain"
	"kodisha/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FirstByRole returns the oldest account with the given role, used as the
// fallback recipient when nothing more specific resolves.
func (r *UserRepository) FirstByRole(role string) (*models.User, error) {
	var u models.User
	err := r.db.Where("role = ?", role).Order("id ASC").First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DefaultRecipient satisfies the resolver's fallback provider: the oldest
// administrator account receives payments nothing else claims.
func (r *UserRepository) DefaultRecipient() (*models.User, error) {
	return r.FirstByRole(domain.RoleAdmin)
}

func (r *UserRepository) ListByRole(role string) ([]models.User, error) {
	var list []models.User
	err := r.db.Where("role = ?", role).Find(&list).Error
	return list, err
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}
