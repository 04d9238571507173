package billing

import (
	"errors"
	"fmt"

	"github.com/Burashka44/House-RentBot/internal/models"

	"gorm.io/gorm"
)

// CanManageObject reports whether the actor may run admin operations
// against the object: an active global owner, the object's owner, or a
// user granted object admin rights. The answer is computed from the
// persisted ownership chain on every call; there is no in-memory admin
// list to drift from the database.
func CanManageObject(tx *gorm.DB, actorID int64, objectID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.User{}).
		Where("tg_id = ? AND role = ? AND is_active = ?", actorID, models.RoleOwner, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	var object models.RentalObject
	if err := tx.First(&object, objectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if object.OwnerID == actorID {
		return true, nil
	}

	if err := tx.Model(&models.ObjectAdmin{}).
		Joins("JOIN users ON users.tg_id = object_admins.tg_id").
		Where("object_admins.object_id = ? AND object_admins.tg_id = ?", objectID, actorID).
		Where("users.is_active = ?", true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// authorizeStayActor resolves the stay's object and checks the actor
// against it. The error carries no hint about what exists or who owns it.
func authorizeStayActor(tx *gorm.DB, actorID int64, stayID uint) error {
	var stay models.TenantStay
	if err := tx.First(&stay, stayID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("stay %d: %w", stayID, ErrNotFound)
		}
		return err
	}
	ok, err := CanManageObject(tx, actorID, stay.ObjectID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
