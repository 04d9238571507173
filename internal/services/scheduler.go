package services

import (
	"log/slog"
	"time"

	"github.com/Burashka44/House-RentBot/internal/billing"
	"github.com/Burashka44/House-RentBot/internal/models"

	"gorm.io/gorm"
)

// StartScheduler runs the daily billing job in the background. The job
// itself is idempotent, so firing it again after a restart is harmless.
func StartScheduler(db *gorm.DB) {
	go func() {
		slog.Info("billing scheduler started")
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			now := time.Now()
			if now.Hour() == 9 && now.Minute() == 0 {
				if err := DailyBillingJob(db); err != nil {
					slog.Error("daily billing job failed", "error", err)
				}
			}
		}
	}()
}

// DailyBillingJob ensures every active stay has its rent charge for the
// current calendar month. Charge creation is the only mutation here;
// allocation always happens on the payment path.
func DailyBillingJob(db *gorm.DB) error {
	var stays []models.TenantStay
	if err := db.Where("status = ?", models.StayActive).Find(&stays).Error; err != nil {
		return err
	}

	month := billing.FirstOfMonth(time.Now())
	for i := range stays {
		if _, err := billing.EnsureRentCharge(db, &stays[i], month); err != nil {
			slog.Error("ensure rent charge failed", "stay_id", stays[i].ID, "error", err)
		}
	}
	slog.Info("daily billing job done", "stays", len(stays))
	return nil
}
