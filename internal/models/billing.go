package models

import "time"

type ChargeStatus string

const (
	ChargeStatusPending ChargeStatus = "pending"
	ChargeStatusPaid    ChargeStatus = "paid"
)

// ChargeKind discriminates the two charge tables. It is the tag of the
// rent-or-communal union used by the allocation engine.
type ChargeKind string

const (
	ChargeRent ChargeKind = "rent"
	ChargeComm ChargeKind = "comm"
)

type PaymentStatus string

const (
	PaymentPendingManual PaymentStatus = "pending_manual"
	PaymentConfirmed     PaymentStatus = "confirmed"
	PaymentRejected      PaymentStatus = "rejected"
	PaymentCancelled     PaymentStatus = "cancelled"
)

// RentCharge is the monthly rent obligation for one stay. Month is stored
// as the first day of the month; the amount is fixed at creation from the
// stay's rent and the tax rate snapshotted at that moment.
type RentCharge struct {
	ID              uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	StayID          uint         `json:"stay_id" gorm:"uniqueIndex:uq_rent_stay_month;not null"`
	Month           time.Time    `json:"month" gorm:"type:date;uniqueIndex:uq_rent_stay_month;not null"`
	Amount          float64      `json:"amount" gorm:"not null"`
	BaseAmount      float64      `json:"base_amount" gorm:"not null"`
	TaxAmount       float64      `json:"tax_amount" gorm:"not null;default:0"`
	TaxRateSnapshot float64      `json:"tax_rate_snapshot" gorm:"not null;default:0"`
	Status          ChargeStatus `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt       time.Time    `json:"created_at"`
}

// CommCharge is a utility obligation for one stay and month.
type CommCharge struct {
	ID          uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	StayID      uint         `json:"stay_id" gorm:"uniqueIndex:uq_comm_stay_provider_month;not null"`
	ProviderID  uint         `json:"provider_id" gorm:"uniqueIndex:uq_comm_stay_provider_month;not null"`
	ServiceType string       `json:"service_type" gorm:"not null"`
	Month       time.Time    `json:"month" gorm:"type:date;uniqueIndex:uq_comm_stay_provider_month;not null"`
	Amount      float64      `json:"amount" gorm:"not null"`
	Status      ChargeStatus `json:"status" gorm:"not null;default:'pending'"`
	Source      string       `json:"source" gorm:"not null;default:'manual'"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Payment is a tenant's claimed remittance. AllocatedAmount plus
// UnallocatedAmount always equals TotalAmount once the payment has been
// processed; the unallocated part is an advance carried forward.
type Payment struct {
	ID                uint          `json:"id" gorm:"primaryKey;autoIncrement"`
	StayID            uint          `json:"stay_id" gorm:"index;not null"`
	Type              ChargeKind    `json:"type" gorm:"not null"`
	TotalAmount       float64       `json:"total_amount" gorm:"not null"`
	AllocatedAmount   float64       `json:"allocated_amount" gorm:"not null;default:0"`
	UnallocatedAmount float64       `json:"unallocated_amount" gorm:"not null;default:0"`
	Method            string        `json:"method" gorm:"not null;default:'online'"`
	Status            PaymentStatus `json:"status" gorm:"not null;default:'pending_manual'"`
	Source            string        `json:"source" gorm:"not null;default:'photo'"`
	IsManual          bool          `json:"is_manual" gorm:"not null;default:false"`
	MarkedBy          *int64        `json:"marked_by"`
	CreatedAt         time.Time     `json:"created_at"`
	ConfirmedAt       *time.Time    `json:"confirmed_at"`
	MetaJSON          *string       `json:"meta_json"`
}

// PaymentAllocation is the join between a payment and one charge. Rows are
// created and deleted only by the allocation engine and the reversal path.
type PaymentAllocation struct {
	ID         uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	PaymentID  uint       `json:"payment_id" gorm:"index;not null"`
	ChargeID   uint       `json:"charge_id" gorm:"index;not null"`
	ChargeKind ChargeKind `json:"charge_kind" gorm:"not null"`
	Amount     float64    `json:"amount" gorm:"not null"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PaymentReceipt keeps the evidence a declared payment came from.
type PaymentReceipt struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PaymentID    *uint     `json:"payment_id" gorm:"uniqueIndex"`
	StayID       uint      `json:"stay_id" gorm:"index;not null"`
	FileID       string    `json:"file_id" gorm:"not null"`
	FileType     string    `json:"file_type" gorm:"not null;default:'photo'"`
	OCRText      string    `json:"ocr_text"`
	OCRConf      float64   `json:"ocr_conf"`
	ParsedAmount *float64  `json:"parsed_amount"`
	Decision     string    `json:"decision" gorm:"not null"`
	RejectReason *string   `json:"reject_reason"`
	CreatedAt    time.Time `json:"created_at"`
}
