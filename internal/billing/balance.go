package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/Burashka44/House-RentBot/internal/models"

	"gorm.io/gorm"
)

// ChargeInfo describes one under-covered charge in a balance view.
type ChargeInfo struct {
	ID         uint              `json:"id"`
	Kind       models.ChargeKind `json:"kind"`
	Month      time.Time         `json:"month"`
	Amount     float64           `json:"amount"`
	PaidAmount float64           `json:"paid_amount"`
	Status     string            `json:"status"` // "unpaid" or "partial"
}

// StayBalance is a point-in-time debt/credit view of one stay. Positive
// balance is debt, negative is net credit.
type StayBalance struct {
	StayID        uint         `json:"stay_id"`
	TotalCharged  float64      `json:"total_charged"`
	TotalPaid     float64      `json:"total_paid"`
	Balance       float64      `json:"balance"`
	RentCharged   float64      `json:"rent_charged"`
	CommCharged   float64      `json:"comm_charged"`
	RentPaid      float64      `json:"rent_paid"`
	CommPaid      float64      `json:"comm_paid"`
	Advances      float64      `json:"advances"`
	UnpaidCharges []ChargeInfo `json:"unpaid_charges"`
}

// GetStayBalance computes the balance of a stay as of the given date
// (zero value means now). It is read-only and takes no locks: it sees only
// committed state, so a view can lag an in-flight allocation by one
// transaction, which is fine for a display value.
//
// Charges are filtered by their nominal month, payments by their actual
// confirmation timestamp. The asymmetry is deliberate: a charge is due by
// calendar period, a payment only counts once actually confirmed.
func GetStayBalance(db *gorm.DB, stayID uint, asOf time.Time) (*StayBalance, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var stay models.TenantStay
	if err := db.First(&stay, stayID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("stay %d: %w", stayID, ErrNotFound)
		}
		return nil, err
	}

	var rentCharged, commCharged float64
	if err := db.Model(&models.RentCharge{}).
		Where("stay_id = ? AND month <= ?", stayID, asOf).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&rentCharged).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.CommCharge{}).
		Where("stay_id = ? AND month <= ?", stayID, asOf).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&commCharged).Error; err != nil {
		return nil, err
	}

	rentPaid, err := paidByKind(db, stayID, models.ChargeRent, asOf)
	if err != nil {
		return nil, err
	}
	commPaid, err := paidByKind(db, stayID, models.ChargeComm, asOf)
	if err != nil {
		return nil, err
	}

	var advances float64
	if err := db.Model(&models.Payment{}).
		Where("stay_id = ? AND status = ?", stayID, models.PaymentConfirmed).
		Where("date(confirmed_at) <= date(?)", asOf).
		Select("COALESCE(SUM(unallocated_amount), 0)").
		Scan(&advances).Error; err != nil {
		return nil, err
	}

	unpaid, err := listUnderpaidCharges(db, stayID, asOf)
	if err != nil {
		return nil, err
	}

	totalCharged := rentCharged + commCharged
	totalPaid := rentPaid + commPaid
	return &StayBalance{
		StayID:        stayID,
		TotalCharged:  totalCharged,
		TotalPaid:     totalPaid,
		Balance:       totalCharged - totalPaid - advances,
		RentCharged:   rentCharged,
		CommCharged:   commCharged,
		RentPaid:      rentPaid,
		CommPaid:      commPaid,
		Advances:      advances,
		UnpaidCharges: unpaid,
	}, nil
}

// paidByKind sums allocations of one kind joined to confirmed payments
// whose confirmation date is within the horizon.
func paidByKind(db *gorm.DB, stayID uint, kind models.ChargeKind, asOf time.Time) (float64, error) {
	var total float64
	err := db.Model(&models.PaymentAllocation{}).
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payments.stay_id = ?", stayID).
		Where("payment_allocations.charge_kind = ?", kind).
		Where("payments.status = ?", models.PaymentConfirmed).
		Where("date(payments.confirmed_at) <= date(?)", asOf).
		Select("COALESCE(SUM(payment_allocations.amount), 0)").
		Scan(&total).Error
	return total, err
}

// listUnderpaidCharges walks the stay's charges due by asOf, oldest first,
// and keeps those whose allocation coverage falls short of the amount.
func listUnderpaidCharges(db *gorm.DB, stayID uint, asOf time.Time) ([]ChargeInfo, error) {
	charges, err := listStayCharges(db, stayID)
	if err != nil {
		return nil, err
	}
	unpaid := make([]ChargeInfo, 0)
	for _, charge := range charges {
		if charge.month().After(asOf) {
			continue
		}
		paid, err := allocatedToCharge(db, charge.kind, charge.id())
		if err != nil {
			return nil, err
		}
		if paid >= charge.amount()-Epsilon {
			continue
		}
		status := "unpaid"
		if paid > 0 {
			status = "partial"
		}
		unpaid = append(unpaid, ChargeInfo{
			ID:         charge.id(),
			Kind:       charge.kind,
			Month:      charge.month(),
			Amount:     charge.amount(),
			PaidAmount: paid,
			Status:     status,
		})
	}
	return unpaid, nil
}

// GetObjectBalance resolves the object's active stay and computes its
// balance.
func GetObjectBalance(db *gorm.DB, objectID uint, asOf time.Time) (*StayBalance, error) {
	var stay models.TenantStay
	err := db.Where("object_id = ? AND status = ?", objectID, models.StayActive).
		First(&stay).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no active stay for object %d: %w", objectID, ErrNotFound)
		}
		return nil, err
	}
	return GetStayBalance(db, stay.ID, asOf)
}

// GetTenantTotalBalance sums the balances of every active stay of one
// tenant.
func GetTenantTotalBalance(db *gorm.DB, tenantID uint, asOf time.Time) (float64, error) {
	var stays []models.TenantStay
	err := db.Where("tenant_id = ? AND status = ?", tenantID, models.StayActive).
		Find(&stays).Error
	if err != nil {
		return 0, err
	}
	var total float64
	for i := range stays {
		balance, err := GetStayBalance(db, stays[i].ID, asOf)
		if err != nil {
			return 0, err
		}
		total += balance.Balance
	}
	return total, nil
}
