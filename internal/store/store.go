package store

import (
	"strings"

	"github.com/Burashka44/House-RentBot/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var db *gorm.DB

// InitDB opens the database and migrates the schema. A postgres DSN selects
// the postgres driver; anything else is treated as a sqlite path, which is
// what the tests use.
func InitDB(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "host=") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	d, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := d.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.RentalObject{},
		&models.ObjectAdmin{},
		&models.TenantStay{},
		&models.CommProvider{},
		&models.RentCharge{},
		&models.CommCharge{},
		&models.Payment{},
		&models.PaymentAllocation{},
		&models.PaymentReceipt{},
	); err != nil {
		return nil, err
	}
	return d, nil
}

func SetDB(d *gorm.DB) { db = d }

func GetDB() *gorm.DB { return db }

// LockForUpdate takes an exclusive row lock on engines that support
// SELECT ... FOR UPDATE. SQLite serializes writers on its own, so the
// clause is skipped there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
