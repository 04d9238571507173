package billing

import (
	"testing"
	"time"

	"github.com/Burashka44/House-RentBot/internal/models"

	"github.com/stretchr/testify/require"
)

func TestDeallocateRestoresPriorState(t *testing.T) {
	db := setupDB(t)
	stay := createStay(t, db, 1000, 0)
	charge := createRentCharge(t, db, stay.ID, month(2025, time.January), 1000)
	payment := createConfirmedPayment(t, db, stay.ID, 1000)

	_, err := Allocate(db, payment.ID)
	require.NoError(t, err)
	require.Equal(t, models.ChargeStatusPaid, reloadRentCharge(t, db, charge.ID).Status)

	require.NoError(t, Deallocate(db, payment.ID))

	require.Equal(t, models.ChargeStatusPending, reloadRentCharge(t, db, charge.ID).Status)
	updated := reloadPayment(t, db, payment.ID)
	require.InDelta(t, 0, updated.AllocatedAmount, Epsilon)
	require.InDelta(t, 1000, updated.UnallocatedAmount, Epsilon)
	requireConservation(t, updated)

	var count int64
	require.NoError(t, db.Model(&models.PaymentAllocation{}).
		Where("payment_id = ?", payment.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestDeallocateLeavesOtherPaymentsCoverage(t *testing.T) {
	db := setupDB(t)
	stay := createStay(t, db, 1000, 0)
	jan := createRentCharge(t, db, stay.ID, month(2025, time.January), 1000)
	feb := createRentCharge(t, db, stay.ID, month(2025, time.February), 1000)

	first := createConfirmedPayment(t, db, stay.ID, 1000)
	_, err := Allocate(db, first.ID)
	require.NoError(t, err)
	second := createConfirmedPayment(t, db, stay.ID, 1000)
	_, err = Allocate(db, second.ID)
	require.NoError(t, err)

	require.NoError(t, Deallocate(db, second.ID))

	// January was covered by the first payment and must stay paid.
	require.Equal(t, models.ChargeStatusPaid, reloadRentCharge(t, db, jan.ID).Status)
	require.Equal(t, models.ChargeStatusPending, reloadRentCharge(t, db, feb.ID).Status)
}

func TestDeallocateNotFound(t *testing.T) {
	db := setupDB(t)
	require.ErrorIs(t, Deallocate(db, 9999), ErrNotFound)
}

func TestCancelPaymentRevertsCharges(t *testing.T) {
	db := setupDB(t)
	stay := createStay(t, db, 30000, 0)
	jan := createRentCharge(t, db, stay.ID, month(2025, time.January), 30000)
	feb := createRentCharge(t, db, stay.ID, month(2025, time.February), 30000)
	payment := createConfirmedPayment(t, db, stay.ID, 45000)

	_, err := Allocate(db, payment.ID)
	require.NoError(t, err)

	balance, err := GetStayBalance(db, stay.ID, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 15000, balance.Balance, Epsilon)

	require.NoError(t, CancelPayment(db, payment.ID, ownerTg, "wrong receipt"))

	updated := reloadPayment(t, db, payment.ID)
	require.Equal(t, models.PaymentCancelled, updated.Status)
	require.InDelta(t, 0, updated.AllocatedAmount, Epsilon)
	require.InDelta(t, 45000, updated.UnallocatedAmount, Epsilon)
	require.NotNil(t, updated.MetaJSON)
	require.Contains(t, *updated.MetaJSON, "wrong receipt")

	require.Equal(t, models.ChargeStatusPending, reloadRentCharge(t, db, jan.ID).Status)
	require.Equal(t, models.ChargeStatusPending, reloadRentCharge(t, db, feb.ID).Status)

	balance, err = GetStayBalance(db, stay.ID, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 60000, balance.Balance, Epsilon)
}

func TestCancelPaymentIdempotent(t *testing.T) {
	db := setupDB(t)
	stay := createStay(t, db, 1000, 0)
	createRentCharge(t, db, stay.ID, month(2025, time.January), 1000)
	payment := createConfirmedPayment(t, db, stay.ID, 1000)
	_, err := Allocate(db, payment.ID)
	require.NoError(t, err)

	require.NoError(t, CancelPayment(db, payment.ID, ownerTg, "first"))
	require.NoError(t, CancelPayment(db, payment.ID, ownerTg, "second"))

	updated := reloadPayment(t, db, payment.ID)
	require.Equal(t, models.PaymentCancelled, updated.Status)
	// The second call must not re-run the reversal or overwrite the audit.
	require.Contains(t, *updated.MetaJSON, "first")
	require.NotContains(t, *updated.MetaJSON, "second")
}

func TestCancelPaymentUnauthorized(t *testing.T) {
	db := setupDB(t)
	stay := createStay(t, db, 1000, 0)
	createRentCharge(t, db, stay.ID, month(2025, time.January), 1000)
	payment := createConfirmedPayment(t, db, stay.ID, 1000)
	_, err := Allocate(db, payment.ID)
	require.NoError(t, err)

	err = CancelPayment(db, payment.ID, 555, "not mine")
	require.ErrorIs(t, err, ErrUnauthorized)

	// Nothing may change on a failed cancel.
	updated := reloadPayment(t, db, payment.ID)
	require.Equal(t, models.PaymentConfirmed, updated.Status)
	var count int64
	require.NoError(t, db.Model(&models.PaymentAllocation{}).
		Where("payment_id = ?", payment.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCancelPaymentInvalidState(t *testing.T) {
	db := setupDB(t)
	stay := createStay(t, db, 1000, 0)
	payment := createConfirmedPayment(t, db, stay.ID, 1000)
	require.NoError(t, db.Model(payment).Update("status", models.PaymentRejected).Error)

	err := CancelPayment(db, payment.ID, ownerTg, "too late")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelPaymentNotFound(t *testing.T) {
	db := setupDB(t)
	err := CancelPayment(db, 9999, ownerTg, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCancelPendingManualPayment(t *testing.T) {
	db := setupDB(t)
	stay := createStay(t, db, 1000, 0)
	payment, _, err := CreatePaymentFromReceipt(db, stay.ID, ReceiptInput{Amount: 1000}, models.ChargeRent)
	require.NoError(t, err)

	require.NoError(t, CancelPayment(db, payment.ID, ownerTg, "tenant retracted"))
	require.Equal(t, models.PaymentCancelled, reloadPayment(t, db, payment.ID).Status)
}

func TestRejectPaymentReversesAllocations(t *testing.T) {
	db := setupDB(t)
	stay := createStay(t, db, 1000, 0)
	charge := createRentCharge(t, db, stay.ID, month(2025, time.January), 1000)
	payment := createConfirmedPayment(t, db, stay.ID, 1000)
	_, err := Allocate(db, payment.ID)
	require.NoError(t, err)

	require.NoError(t, RejectPayment(db, payment.ID, ownerTg, "amount mismatch"))
	require.NoError(t, RejectPayment(db, payment.ID, ownerTg, "again"))

	updated := reloadPayment(t, db, payment.ID)
	require.Equal(t, models.PaymentRejected, updated.Status)
	require.Equal(t, models.ChargeStatusPending, reloadRentCharge(t, db, charge.ID).Status)

	// A cancelled payment cannot be re-labelled rejected.
	other := createConfirmedPayment(t, db, stay.ID, 100)
	require.NoError(t, CancelPayment(db, other.ID, ownerTg, ""))
	require.ErrorIs(t, RejectPayment(db, other.ID, ownerTg, ""), ErrInvalidState)
}
