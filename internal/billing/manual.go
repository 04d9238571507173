package billing

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Burashka44/House-RentBot/internal/models"

	"gorm.io/gorm"
)

// MarkChargeAsPaid settles a charge without a receipt, on an admin's word.
// It synthesizes a confirmed manual payment covering exactly this charge,
// with a single matching allocation, and marks the charge paid. The charge
// row is locked first; marking an already paid charge fails with
// ErrAlreadyPaid and writes nothing. Because this path bypasses the
// receipt pipeline entirely, the actor and note always go into the
// payment's metadata.
func MarkChargeAsPaid(db *gorm.DB, kind models.ChargeKind, chargeID uint, actorID int64, note string) (*models.Payment, error) {
	var payment models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		charge, err := getCharge(tx, kind, chargeID, true)
		if err != nil {
			return err
		}
		if charge.status() == models.ChargeStatusPaid {
			return fmt.Errorf("charge %s#%d: %w", kind, chargeID, ErrAlreadyPaid)
		}
		if err := authorizeStayActor(tx, actorID, charge.stayID()); err != nil {
			return err
		}

		now := time.Now()
		payment = models.Payment{
			StayID:            charge.stayID(),
			Type:              kind,
			TotalAmount:       charge.amount(),
			AllocatedAmount:   charge.amount(),
			UnallocatedAmount: 0,
			Method:            "manual",
			Status:            models.PaymentConfirmed,
			Source:            "manual",
			IsManual:          true,
			MarkedBy:          &actorID,
			ConfirmedAt:       &now,
		}
		if note == "" {
			note = fmt.Sprintf("marked as paid manually by %d", actorID)
		}
		if err := setMeta(&payment, "note", note); err != nil {
			return err
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		alloc := models.PaymentAllocation{
			PaymentID:  payment.ID,
			ChargeID:   charge.id(),
			ChargeKind: kind,
			Amount:     charge.amount(),
		}
		if err := tx.Create(&alloc).Error; err != nil {
			return err
		}
		return charge.setStatus(tx, models.ChargeStatusPaid)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("charge marked as paid manually",
		"charge_kind", kind, "charge_id", chargeID, "actor", actorID, "payment_id", payment.ID)
	return &payment, nil
}
