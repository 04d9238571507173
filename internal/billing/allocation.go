package billing

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Burashka44/House-RentBot/internal/models"
	"github.com/Burashka44/House-RentBot/internal/store"

	"gorm.io/gorm"
)

// Epsilon absorbs decimal rounding on monetary comparisons. Amounts are
// stored at 2-decimal precision, so anything within a kopeck is "equal".
const Epsilon = 0.01

// Allocate distributes the payment's undistributed amount across the
// stay's open charges, oldest month first, and returns the allocations it
// created. Calling it again on a fully allocated payment is a no-op that
// returns an empty list. Anything left after every charge is covered stays
// on the payment as an advance.
func Allocate(db *gorm.DB, paymentID uint) ([]models.PaymentAllocation, error) {
	var created []models.PaymentAllocation
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = allocateTx(tx, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// allocateTx runs the FIFO loop inside the caller's transaction. The
// payment row is locked before any allocation state is read, and the
// "already fully allocated" check happens after the lock is held, so two
// concurrent callers cannot distribute the same money twice.
func allocateTx(tx *gorm.DB, paymentID uint) ([]models.PaymentAllocation, error) {
	var payment models.Payment
	if err := store.LockForUpdate(tx).First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
		}
		return nil, err
	}
	if payment.Status != models.PaymentConfirmed {
		return nil, fmt.Errorf("payment %d is %s, allocation needs confirmed: %w",
			payment.ID, payment.Status, ErrInvalidState)
	}

	remaining := payment.TotalAmount - payment.AllocatedAmount
	if remaining <= Epsilon {
		slog.Info("payment already fully allocated", "payment_id", payment.ID)
		return nil, nil
	}

	charges, err := listStayCharges(tx, payment.StayID)
	if err != nil {
		return nil, err
	}

	var created []models.PaymentAllocation
	for _, charge := range charges {
		if remaining <= Epsilon {
			break
		}
		paidSoFar, err := allocatedToCharge(tx, charge.kind, charge.id())
		if err != nil {
			return nil, err
		}
		chargeRemaining := charge.amount() - paidSoFar
		if chargeRemaining <= Epsilon {
			continue
		}

		amount := math.Min(remaining, chargeRemaining)
		alloc := models.PaymentAllocation{
			PaymentID:  payment.ID,
			ChargeID:   charge.id(),
			ChargeKind: charge.kind,
			Amount:     amount,
		}
		if err := tx.Create(&alloc).Error; err != nil {
			return nil, err
		}
		created = append(created, alloc)
		remaining -= amount

		if paidSoFar+amount >= charge.amount()-Epsilon {
			if err := charge.setStatus(tx, models.ChargeStatusPaid); err != nil {
				return nil, err
			}
		}
	}

	payment.AllocatedAmount = payment.TotalAmount - remaining
	payment.UnallocatedAmount = remaining
	if err := tx.Save(&payment).Error; err != nil {
		return nil, err
	}

	slog.Info("payment allocated",
		"payment_id", payment.ID,
		"allocations", len(created),
		"unallocated", payment.UnallocatedAmount)
	return created, nil
}

// GetPaymentAllocations lists a payment's allocations in creation order.
func GetPaymentAllocations(db *gorm.DB, paymentID uint) ([]models.PaymentAllocation, error) {
	var allocs []models.PaymentAllocation
	err := db.Where("payment_id = ?", paymentID).Order("created_at").Find(&allocs).Error
	return allocs, err
}
