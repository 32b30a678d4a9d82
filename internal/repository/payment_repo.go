package repository

import (
	"time"

	"kodisha/internal/domain"
	"kodisha/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Preload("Payer").Preload("Recipient").Preload("Unit").Preload("Unit.Owner").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByReference(ref string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("channel_reference = ?", ref).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) Update(p *models.Payment) error {
	return r.db.Save(p).Error
}

// SetChannel records freshly issued instructions. Any prior channel,
// reference and metadata are discarded; amount and parties are untouched.
func (r *PaymentRepository) SetChannel(id uint, channel, reference, metadata string) error {
	return r.db.Model(&models.Payment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"channel":           channel,
		"channel_reference": reference,
		"metadata":          metadata,
	}).Error
}

// SettleIfPayable flips the payment to PAID with a single conditional update.
// The status guard closes the race between concurrent confirmations: only one
// of two racing callers sees RowsAffected > 0. Returns false when the row was
// not payable (already PAID, CANCELLED, or missing).
func (r *PaymentRepository) SettleIfPayable(id uint, channel, reference string, settledAt time.Time, note string) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status IN ?", id, []string{domain.PaymentStatusPending, domain.PaymentStatusOverdue}).
		Updates(map[string]interface{}{
			"status":            domain.PaymentStatusPaid,
			"channel":           channel,
			"channel_reference": reference,
			"settled_at":        settledAt,
			"settlement_note":   note,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CancelIfNotSettled marks the payment CANCELLED unless it is already PAID.
func (r *PaymentRepository) CancelIfNotSettled(id uint) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("id = ? AND status <> ?", id, domain.PaymentStatusPaid).
		Update("status", domain.PaymentStatusCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PaymentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Payment{}, id).Error
}

func (r *PaymentRepository) ListByRequest(requestID uint) ([]models.Payment, error) {
	var list []models.Payment
	err := r.db.Where("request_id = ?", requestID).Find(&list).Error
	return list, err
}

// Scope restricts queries to what the caller may see: tenants their own
// payments, owners additionally payments on their units, admins everything.
type Scope struct {
	Role    string
	UserID  uint
	UnitIDs []uint
}

func (s Scope) apply(q *gorm.DB) *gorm.DB {
	if s.Role == domain.RoleAdmin {
		return q
	}
	if s.Role == domain.RoleOwner && len(s.UnitIDs) > 0 {
		return q.Where("payer_id = ? OR recipient_id = ? OR unit_id IN ?", s.UserID, s.UserID, s.UnitIDs)
	}
	return q.Where("payer_id = ? OR recipient_id = ?", s.UserID, s.UserID)
}

type ListFilter struct {
	UnitID     uint
	BuildingID uint
	Category   string
	Status     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (r *PaymentRepository) List(scope Scope, f ListFilter) ([]models.Payment, int64, error) {
	q := scope.apply(r.db.Model(&models.Payment{}))
	if f.UnitID != 0 {
		q = q.Where("unit_id = ?", f.UnitID)
	}
	if f.BuildingID != 0 {
		q = q.Where("building_id = ?", f.BuildingID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []models.Payment
	err := q.Preload("Payer").Preload("Recipient").Preload("Unit").
		Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}

// Totals are the derived paid/pending/overdue aggregates. Overdue counts
// PENDING rows past due in addition to rows the sweep marked OVERDUE.
type Totals struct {
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaidCount     int64           `json:"paid_count"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	PendingCount  int64           `json:"pending_count"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
	OverdueCount  int64           `json:"overdue_count"`
}

func (r *PaymentRepository) Stats(scope Scope, now time.Time) (*Totals, error) {
	t := &Totals{
		PaidAmount:    decimal.Zero,
		PendingAmount: decimal.Zero,
		OverdueAmount: decimal.Zero,
	}
	type row struct {
		Total decimal.Decimal
		N     int64
	}
	sum := func(q *gorm.DB) (row, error) {
		var out row
		err := q.Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n").Scan(&out).Error
		return out, err
	}
	paid, err := sum(scope.apply(r.db.Model(&models.Payment{})).Where("status = ?", domain.PaymentStatusPaid))
	if err != nil {
		return nil, err
	}
	pending, err := sum(scope.apply(r.db.Model(&models.Payment{})).Where("status = ? AND due_at >= ?", domain.PaymentStatusPending, now))
	if err != nil {
		return nil, err
	}
	overdue, err := sum(scope.apply(r.db.Model(&models.Payment{})).
		Where("(status = ? AND due_at < ?) OR status = ?", domain.PaymentStatusPending, now, domain.PaymentStatusOverdue))
	if err != nil {
		return nil, err
	}
	t.PaidAmount, t.PaidCount = paid.Total, paid.N
	t.PendingAmount, t.PendingCount = pending.Total, pending.N
	t.OverdueAmount, t.OverdueCount = overdue.Total, overdue.N
	return t, nil
}

// Overdue lists unsettled payments whose due date has passed. OVERDUE here is
// derived from due_at, not read from the status column alone.
func (r *PaymentRepository) Overdue(scope Scope, now time.Time) ([]models.Payment, error) {
	var list []models.Payment
	err := scope.apply(r.db.Model(&models.Payment{})).
		Where("(status = ? AND due_at < ?) OR status = ?", domain.PaymentStatusPending, now, domain.PaymentStatusOverdue).
		Preload("Payer").Preload("Unit").
		Order("due_at ASC").Find(&list).Error
	return list, err
}

func (r *PaymentRepository) NextDue(scope Scope, now time.Time) (*models.Payment, error) {
	var p models.Payment
	err := scope.apply(r.db.Model(&models.Payment{})).
		Where("status = ? AND due_at >= ?", domain.PaymentStatusPending, now).
		Order("due_at ASC").First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SweepOverdue persists OVERDUE on pending payments past due. This is the
// explicit administrative sweep; day-to-day overdue reads stay derived.
func (r *PaymentRepository) SweepOverdue(now time.Time) (int64, error) {
	res := r.db.Model(&models.Payment{}).
		Where("status = ? AND due_at < ?", domain.PaymentStatusPending, now).
		Update("status", domain.PaymentStatusOverdue)
	return res.RowsAffected, res.Error
}
