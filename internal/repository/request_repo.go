package repository

import (
	"kodisha/internal/domain"
	"kodisha/internal/models"

	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) GetByID(id uint) (*models.Request, error) {
	var req models.Request
	err := r.db.First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// RecomputePaymentStatus rederives the request's aggregate payment status from
// its live payments. Cancelled payments do not count either way.
func (r *RequestRepository) RecomputePaymentStatus(requestID uint) error {
	var total, paid int64
	q := r.db.Model(&models.Payment{}).Where("request_id = ? AND status <> ?", requestID, domain.PaymentStatusCancelled)
	if err := q.Count(&total).Error; err != nil {
		return err
	}
	if err := r.db.Model(&models.Payment{}).
		Where("request_id = ? AND status = ?", requestID, domain.PaymentStatusPaid).
		Count(&paid).Error; err != nil {
		return err
	}
	status := domain.RequestUnpaid
	switch {
	case total > 0 && paid == total:
		status = domain.RequestPaid
	case paid > 0:
		status = domain.RequestPartiallyPaid
	}
	return r.db.Model(&models.Request{}).Where("id = ?", requestID).
		Update("payment_status", status).Error
}
