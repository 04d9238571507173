package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Burashka44/House-RentBot/internal/models"
	"github.com/Burashka44/House-RentBot/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceiptInput is what the receipt recognition subsystem hands over:
// a declared amount plus a routing guess. The engine trusts the amount
// once the payment is confirmed; it never re-derives the classification.
type ReceiptInput struct {
	FileID   string
	FileType string
	OCRText  string
	OCRConf  float64
	Amount   float64
	Receiver string
	Purpose  string
}

// CreatePaymentFromReceipt records a declared payment awaiting manual
// confirmation, together with the receipt evidence it came from.
func CreatePaymentFromReceipt(db *gorm.DB, stayID uint, in ReceiptInput, typeGuess models.ChargeKind) (*models.Payment, *models.PaymentReceipt, error) {
	var stay models.TenantStay
	if err := db.First(&stay, stayID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("stay %d: %w", stayID, ErrNotFound)
		}
		return nil, nil, err
	}
	if in.FileID == "" {
		in.FileID = uuid.NewString()
	}
	if in.FileType == "" {
		in.FileType = "photo"
	}

	payment := models.Payment{
		StayID:            stayID,
		Type:              typeGuess,
		TotalAmount:       in.Amount,
		AllocatedAmount:   0,
		UnallocatedAmount: in.Amount,
		Method:            "online",
		Status:            models.PaymentPendingManual,
		Source:            "photo",
	}
	receipt := models.PaymentReceipt{
		StayID:       stayID,
		FileID:       in.FileID,
		FileType:     in.FileType,
		OCRText:      in.OCRText,
		OCRConf:      in.OCRConf,
		ParsedAmount: &in.Amount,
		Decision:     "accepted",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		receipt.PaymentID = &payment.ID
		return tx.Create(&receipt).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &payment, &receipt, nil
}

// ConfirmPayment moves a declared payment to confirmed and immediately
// runs allocation in the same transaction, so a confirmed payment never
// exists with its money undistributed. Confirming an already confirmed
// payment is a success no-op.
func ConfirmPayment(db *gorm.DB, paymentID uint, actorID int64) (*models.Payment, []models.PaymentAllocation, error) {
	var payment models.Payment
	var allocs []models.PaymentAllocation
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := store.LockForUpdate(tx).First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
			}
			return err
		}
		if payment.Status == models.PaymentConfirmed {
			return nil
		}
		if payment.Status != models.PaymentPendingManual {
			return fmt.Errorf("payment %d is %s: %w", payment.ID, payment.Status, ErrInvalidState)
		}
		if err := authorizeStayActor(tx, actorID, payment.StayID); err != nil {
			return err
		}

		now := time.Now()
		payment.Status = models.PaymentConfirmed
		payment.ConfirmedAt = &now
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		var err error
		allocs, err = allocateTx(tx, payment.ID)
		if err != nil {
			return err
		}
		// allocateTx updated the amounts, re-read the committed view.
		return tx.First(&payment, payment.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &payment, allocs, nil
}

// setMeta merges one key into the payment's metadata json.
func setMeta(payment *models.Payment, key string, value any) error {
	meta := map[string]any{}
	if payment.MetaJSON != nil && *payment.MetaJSON != "" {
		if err := json.Unmarshal([]byte(*payment.MetaJSON), &meta); err != nil {
			meta = map[string]any{}
		}
	}
	meta[key] = value
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	s := string(raw)
	payment.MetaJSON = &s
	return nil
}
