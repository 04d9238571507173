package billing

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Burashka44/House-RentBot/internal/models"
	"github.com/Burashka44/House-RentBot/internal/store"

	"gorm.io/gorm"
)

// chargeRef is the tagged union over the rent and communal charge tables.
// Exactly one of rent/comm is set, matching kind.
type chargeRef struct {
	kind models.ChargeKind
	rent *models.RentCharge
	comm *models.CommCharge
}

func (c chargeRef) id() uint {
	if c.kind == models.ChargeRent {
		return c.rent.ID
	}
	return c.comm.ID
}

func (c chargeRef) stayID() uint {
	if c.kind == models.ChargeRent {
		return c.rent.StayID
	}
	return c.comm.StayID
}

func (c chargeRef) month() time.Time {
	if c.kind == models.ChargeRent {
		return c.rent.Month
	}
	return c.comm.Month
}

func (c chargeRef) amount() float64 {
	if c.kind == models.ChargeRent {
		return c.rent.Amount
	}
	return c.comm.Amount
}

func (c chargeRef) status() models.ChargeStatus {
	if c.kind == models.ChargeRent {
		return c.rent.Status
	}
	return c.comm.Status
}

func (c chargeRef) setStatus(tx *gorm.DB, status models.ChargeStatus) error {
	if c.kind == models.ChargeRent {
		c.rent.Status = status
		return tx.Model(&models.RentCharge{}).Where("id = ?", c.rent.ID).
			Update("status", status).Error
	}
	c.comm.Status = status
	return tx.Model(&models.CommCharge{}).Where("id = ?", c.comm.ID).
		Update("status", status).Error
}

// getCharge loads one charge by kind and id. With forUpdate the row is
// locked for the rest of the transaction.
func getCharge(tx *gorm.DB, kind models.ChargeKind, chargeID uint, forUpdate bool) (chargeRef, error) {
	q := tx
	if forUpdate {
		q = store.LockForUpdate(tx)
	}
	switch kind {
	case models.ChargeRent:
		var charge models.RentCharge
		if err := q.First(&charge, chargeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return chargeRef{}, fmt.Errorf("rent charge %d: %w", chargeID, ErrNotFound)
			}
			return chargeRef{}, err
		}
		return chargeRef{kind: kind, rent: &charge}, nil
	case models.ChargeComm:
		var charge models.CommCharge
		if err := q.First(&charge, chargeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return chargeRef{}, fmt.Errorf("comm charge %d: %w", chargeID, ErrNotFound)
			}
			return chargeRef{}, err
		}
		return chargeRef{kind: kind, comm: &charge}, nil
	default:
		return chargeRef{}, fmt.Errorf("charge kind %q: %w", kind, ErrNotFound)
	}
}

// listStayCharges returns every charge of the stay, rent and communal
// merged, sorted ascending by month. This is the FIFO order the allocation
// loop walks. Status is deliberately not filtered here: coverage is always
// recomputed from allocations, which survives a broken status sync.
func listStayCharges(tx *gorm.DB, stayID uint) ([]chargeRef, error) {
	var rent []models.RentCharge
	if err := tx.Where("stay_id = ?", stayID).Order("month").Find(&rent).Error; err != nil {
		return nil, err
	}
	var comm []models.CommCharge
	if err := tx.Where("stay_id = ?", stayID).Order("month").Find(&comm).Error; err != nil {
		return nil, err
	}
	charges := make([]chargeRef, 0, len(rent)+len(comm))
	for i := range rent {
		charges = append(charges, chargeRef{kind: models.ChargeRent, rent: &rent[i]})
	}
	for i := range comm {
		charges = append(charges, chargeRef{kind: models.ChargeComm, comm: &comm[i]})
	}
	sort.SliceStable(charges, func(i, j int) bool {
		return charges[i].month().Before(charges[j].month())
	})
	return charges, nil
}

// allocatedToCharge sums every allocation against one charge, across all
// payments.
func allocatedToCharge(tx *gorm.DB, kind models.ChargeKind, chargeID uint) (float64, error) {
	var total float64
	err := tx.Model(&models.PaymentAllocation{}).
		Where("charge_id = ? AND charge_kind = ?", chargeID, kind).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// FirstOfMonth normalizes a date to the first-of-month marker charges are
// keyed by.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EnsureRentCharge makes sure a rent charge exists for the stay and month.
// It is idempotent: the billing scheduler calls it every day and only the
// first call for a month creates a row. The amount is fixed at creation
// from the stay's current rent plus the snapshotted tax rate.
func EnsureRentCharge(db *gorm.DB, stay *models.TenantStay, forMonth time.Time) (*models.RentCharge, error) {
	month := FirstOfMonth(forMonth)
	var charge models.RentCharge
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("stay_id = ? AND month = ?", stay.ID, month).First(&charge).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		base := stay.RentAmount
		tax := base * stay.TaxRate / 100.0
		charge = models.RentCharge{
			StayID:          stay.ID,
			Month:           month,
			Amount:          base + tax,
			BaseAmount:      base,
			TaxAmount:       tax,
			TaxRateSnapshot: stay.TaxRate,
			Status:          models.ChargeStatusPending,
		}
		return tx.Create(&charge).Error
	})
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

// EnsureCommCharge makes sure a communal charge exists for the stay,
// provider and month. Idempotent on (stay, provider, month); the amount of
// an existing charge is never touched here.
func EnsureCommCharge(db *gorm.DB, stay *models.TenantStay, providerID uint, serviceType string, forMonth time.Time, amount float64) (*models.CommCharge, error) {
	month := FirstOfMonth(forMonth)
	var charge models.CommCharge
	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("stay_id = ? AND provider_id = ? AND month = ?", stay.ID, providerID, month).
			First(&charge).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		charge = models.CommCharge{
			StayID:      stay.ID,
			ProviderID:  providerID,
			ServiceType: serviceType,
			Month:       month,
			Amount:      amount,
			Status:      models.ChargeStatusPending,
		}
		return tx.Create(&charge).Error
	})
	if err != nil {
		return nil, err
	}
	return &charge, nil
}
