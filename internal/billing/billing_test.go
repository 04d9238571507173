package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/Burashka44/House-RentBot/internal/models"
	"github.com/Burashka44/House-RentBot/internal/store"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ownerTg  = int64(1001)
	tenantTg = int64(2001)
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Per-test in-memory database to avoid cross-test interference
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := store.InitDB(dsn)
	require.NoError(t, err)
	return db
}

// createStay seeds an owner, a tenant, an object and an active stay.
func createStay(t *testing.T, db *gorm.DB, rentAmount, taxRate float64) *models.TenantStay {
	t.Helper()
	owner := models.User{TgID: ownerTg, FullName: "Owner", Role: models.RoleOwner, IsActive: true}
	require.NoError(t, db.Create(&owner).Error)

	tg := tenantTg
	tenant := models.Tenant{TgID: &tg, FullName: "Test Tenant", Status: models.TenantActive}
	require.NoError(t, db.Create(&tenant).Error)

	object := models.RentalObject{OwnerID: ownerTg, Address: "Lenina 5, apt 12", Status: "occupied"}
	require.NoError(t, db.Create(&object).Error)

	stay := models.TenantStay{
		TenantID:   tenant.ID,
		ObjectID:   object.ID,
		DateFrom:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		RentAmount: rentAmount,
		RentDay:    5,
		CommDay:    22,
		TaxRate:    taxRate,
		Status:     models.StayActive,
	}
	require.NoError(t, db.Create(&stay).Error)
	return &stay
}

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func createRentCharge(t *testing.T, db *gorm.DB, stayID uint, chargeMonth time.Time, amount float64) *models.RentCharge {
	t.Helper()
	charge := models.RentCharge{
		StayID:     stayID,
		Month:      chargeMonth,
		Amount:     amount,
		BaseAmount: amount,
		Status:     models.ChargeStatusPending,
	}
	require.NoError(t, db.Create(&charge).Error)
	return &charge
}

func createCommCharge(t *testing.T, db *gorm.DB, stayID uint, chargeMonth time.Time, amount float64) *models.CommCharge {
	t.Helper()
	provider := models.CommProvider{ServiceType: "electric", Name: "Gorenergo", Active: true}
	require.NoError(t, db.Create(&provider).Error)
	charge := models.CommCharge{
		StayID:      stayID,
		ProviderID:  provider.ID,
		ServiceType: provider.ServiceType,
		Month:       chargeMonth,
		Amount:      amount,
		Status:      models.ChargeStatusPending,
	}
	require.NoError(t, db.Create(&charge).Error)
	return &charge
}

func createConfirmedPayment(t *testing.T, db *gorm.DB, stayID uint, amount float64) *models.Payment {
	t.Helper()
	now := time.Now()
	payment := models.Payment{
		StayID:            stayID,
		Type:              models.ChargeRent,
		TotalAmount:       amount,
		UnallocatedAmount: amount,
		Status:            models.PaymentConfirmed,
		ConfirmedAt:       &now,
	}
	require.NoError(t, db.Create(&payment).Error)
	return &payment
}

func reloadPayment(t *testing.T, db *gorm.DB, id uint) *models.Payment {
	t.Helper()
	var payment models.Payment
	require.NoError(t, db.First(&payment, id).Error)
	return &payment
}

func reloadRentCharge(t *testing.T, db *gorm.DB, id uint) *models.RentCharge {
	t.Helper()
	var charge models.RentCharge
	require.NoError(t, db.First(&charge, id).Error)
	return &charge
}

// requireConservation checks that allocated + unallocated == total.
func requireConservation(t *testing.T, payment *models.Payment) {
	t.Helper()
	require.InDelta(t, payment.TotalAmount, payment.AllocatedAmount+payment.UnallocatedAmount, Epsilon)
}
