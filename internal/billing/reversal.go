package billing

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Burashka44/House-RentBot/internal/models"
	"github.com/Burashka44/House-RentBot/internal/store"

	"gorm.io/gorm"
)

// Deallocate deletes every allocation of the payment and restores the
// prior state: charges no longer covered by other payments go back to
// pending, and the payment's whole amount becomes unallocated again.
func Deallocate(db *gorm.DB, paymentID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := store.LockForUpdate(tx).First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
			}
			return err
		}
		return deallocateTx(tx, &payment)
	})
}

func deallocateTx(tx *gorm.DB, payment *models.Payment) error {
	var allocs []models.PaymentAllocation
	if err := tx.Where("payment_id = ?", payment.ID).Order("created_at").
		Find(&allocs).Error; err != nil {
		return err
	}

	for _, alloc := range allocs {
		charge, err := getCharge(tx, alloc.ChargeKind, alloc.ChargeID, false)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if err == nil && charge.status() == models.ChargeStatusPaid {
			paid, err := allocatedToCharge(tx, alloc.ChargeKind, alloc.ChargeID)
			if err != nil {
				return err
			}
			// Coverage from the remaining payments only.
			if paid-alloc.Amount < charge.amount()-Epsilon {
				if err := charge.setStatus(tx, models.ChargeStatusPending); err != nil {
					return err
				}
			}
		}
		if err := tx.Delete(&models.PaymentAllocation{}, alloc.ID).Error; err != nil {
			return err
		}
	}

	payment.AllocatedAmount = 0
	payment.UnallocatedAmount = payment.TotalAmount
	if err := tx.Save(payment).Error; err != nil {
		return err
	}

	slog.Info("payment deallocated", "payment_id", payment.ID, "reverted_allocations", len(allocs))
	return nil
}

// CancelPayment reverses a payment's allocations and marks it cancelled,
// with an audit record of who cancelled it and why. Cancelling an already
// cancelled payment is a success no-op. A rejected payment cannot be
// cancelled on top.
func CancelPayment(db *gorm.DB, paymentID uint, actorID int64, reason string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := store.LockForUpdate(tx).First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
			}
			return err
		}
		if payment.Status == models.PaymentCancelled {
			return nil
		}
		if payment.Status == models.PaymentRejected {
			return fmt.Errorf("payment %d is %s: %w", payment.ID, payment.Status, ErrInvalidState)
		}
		if err := authorizeStayActor(tx, actorID, payment.StayID); err != nil {
			return err
		}
		if err := deallocateTx(tx, &payment); err != nil {
			return err
		}
		payment.Status = models.PaymentCancelled
		if err := setMeta(&payment, "cancel", map[string]any{
			"actor":  actorID,
			"at":     time.Now().UTC().Format(time.RFC3339),
			"reason": reason,
		}); err != nil {
			return err
		}
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		slog.Info("payment cancelled", "payment_id", payment.ID, "actor", actorID)
		return nil
	})
}

// RejectPayment reverses and rejects a declared payment (bad receipt,
// wrong amount). Idempotent on an already rejected payment.
func RejectPayment(db *gorm.DB, paymentID uint, actorID int64, reason string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := store.LockForUpdate(tx).First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
			}
			return err
		}
		if payment.Status == models.PaymentRejected {
			return nil
		}
		if payment.Status == models.PaymentCancelled {
			return fmt.Errorf("payment %d is %s: %w", payment.ID, payment.Status, ErrInvalidState)
		}
		if err := authorizeStayActor(tx, actorID, payment.StayID); err != nil {
			return err
		}
		if err := deallocateTx(tx, &payment); err != nil {
			return err
		}
		payment.Status = models.PaymentRejected
		if err := setMeta(&payment, "reject", map[string]any{
			"actor":  actorID,
			"at":     time.Now().UTC().Format(time.RFC3339),
			"reason": reason,
		}); err != nil {
			return err
		}
		return tx.Save(&payment).Error
	})
}
