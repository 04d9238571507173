package models

import "time"

type TenantStatus string

const (
	TenantActive   TenantStatus = "active"
	TenantArchived TenantStatus = "archived"
	TenantBanned   TenantStatus = "banned"
)

type StayStatus string

const (
	StayActive   StayStatus = "active"
	StayArchived StayStatus = "archived"
)

type UserRole string

const (
	RoleOwner   UserRole = "owner"
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
)

// User is an admin-side account (owner, admin or manager), identified by
// the messenger id the bot sees.
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	TgID       int64     `json:"tg_id" gorm:"uniqueIndex;not null"`
	TgUsername string    `json:"tg_username"`
	FullName   string    `json:"full_name"`
	Role       UserRole  `json:"role" gorm:"not null;default:'admin'"`
	IsActive   bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedBy  *int64    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type Tenant struct {
	ID        uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	TgID      *int64       `json:"tg_id" gorm:"uniqueIndex"`
	FullName  string       `json:"full_name" gorm:"not null"`
	Phone     string       `json:"phone"`
	Status    TenantStatus `json:"status" gorm:"not null;default:'active'"`
	CreatedAt time.Time    `json:"created_at"`
}

type RentalObject struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID   int64     `json:"owner_id" gorm:"index;not null"`
	Address   string    `json:"address" gorm:"not null"`
	Status    string    `json:"status" gorm:"not null;default:'free'"`
	CreatedAt time.Time `json:"created_at"`
}

// ObjectAdmin grants a user admin rights over one rental object.
type ObjectAdmin struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ObjectID  uint      `json:"object_id" gorm:"uniqueIndex:uq_object_admin;not null"`
	TgID      int64     `json:"tg_id" gorm:"uniqueIndex:uq_object_admin;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantStay is one continuous occupancy agreement. Charges and payments
// hang off the stay, not off the tenant directly.
type TenantStay struct {
	ID         uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID   uint       `json:"tenant_id" gorm:"index;not null"`
	ObjectID   uint       `json:"object_id" gorm:"index;not null"`
	DateFrom   time.Time  `json:"date_from" gorm:"type:date;not null"`
	DateTo     *time.Time `json:"date_to" gorm:"type:date"`
	RentAmount float64    `json:"rent_amount" gorm:"not null"`
	RentDay    int        `json:"rent_day" gorm:"not null"`
	CommDay    int        `json:"comm_day" gorm:"not null;default:22"`
	TaxRate    float64    `json:"tax_rate" gorm:"not null;default:0"`
	Status     StayStatus `json:"status" gorm:"not null;default:'active'"`
	CreatedAt  time.Time  `json:"created_at"`
}

type CommProvider struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ObjectID    *uint     `json:"object_id" gorm:"index"`
	ServiceType string    `json:"service_type" gorm:"not null"`
	Name        string    `json:"name" gorm:"not null"`
	Active      bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
}
