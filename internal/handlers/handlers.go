package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Burashka44/House-RentBot/internal/billing"
	"github.com/Burashka44/House-RentBot/internal/models"
	"github.com/Burashka44/House-RentBot/internal/store"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the billing API. Every route runs behind the given
// identity middleware; authorization itself happens inside the engine.
func RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	api := r.Group("/api/v1", auth)

	api.POST("/payments", declarePayment)
	api.GET("/payments", listPayments)
	api.GET("/payments/:id", getPayment)
	api.POST("/payments/:id/confirm", confirmPayment)
	api.POST("/payments/:id/allocate", allocatePayment)
	api.POST("/payments/:id/cancel", cancelPayment)
	api.POST("/payments/:id/reject", rejectPayment)

	api.POST("/charges/rent/ensure", ensureRentCharge)
	api.POST("/charges/comm/ensure", ensureCommCharge)
	api.POST("/charges/:kind/:id/mark-paid", markChargePaid)

	api.GET("/stays/:id/balance", stayBalance)
}

func actorID(c *gin.Context) int64 {
	return c.GetInt64("tg_id")
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// writeDomainError maps engine errors to HTTP. Authorization failures stay
// generic on purpose.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, billing.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "no permission"})
	case errors.Is(err, billing.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "charge already paid"})
	case errors.Is(err, billing.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid payment state"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type declarePaymentReq struct {
	StayID    uint    `json:"stayId" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	TypeGuess string  `json:"typeGuess" binding:"required,oneof=rent comm"`
	FileID    string  `json:"fileId"`
	OCRText   string  `json:"ocrText"`
	OCRConf   float64 `json:"ocrConf"`
}

func declarePayment(c *gin.Context) {
	var req declarePaymentReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	db := store.GetDB()
	payment, receipt, err := billing.CreatePaymentFromReceipt(db, req.StayID, billing.ReceiptInput{
		FileID:  req.FileID,
		OCRText: req.OCRText,
		OCRConf: req.OCRConf,
		Amount:  req.Amount,
	}, models.ChargeKind(req.TypeGuess))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment, "receipt": receipt})
}

func listPayments(c *gin.Context) {
	page := 1
	pageSize := 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("pageSize"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 200 {
			pageSize = v
		}
	}
	db := store.GetDB()
	q := db.Model(&models.Payment{}).Order("created_at desc")
	if stayID := c.Query("stayId"); stayID != "" {
		q = q.Where("stay_id = ?", stayID)
	}
	var total int64
	q.Count(&total)
	var payments []models.Payment
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments, "page": page, "pageSize": pageSize, "total": total})
}

func getPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	db := store.GetDB()
	var payment models.Payment
	if err := db.First(&payment, id).Error; err != nil {
		writeDomainError(c, billing.ErrNotFound)
		return
	}
	allocs, err := billing.GetPaymentAllocations(db, payment.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if allocs == nil {
		allocs = make([]models.PaymentAllocation, 0)
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment, "allocations": allocs})
}

func confirmPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	payment, allocs, err := billing.ConfirmPayment(store.GetDB(), id, actorID(c))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if allocs == nil {
		allocs = make([]models.PaymentAllocation, 0)
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment, "allocations": allocs})
}

func allocatePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	allocs, err := billing.Allocate(store.GetDB(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if allocs == nil {
		allocs = make([]models.PaymentAllocation, 0)
	}
	c.JSON(http.StatusOK, gin.H{"allocations": allocs})
}

type reasonReq struct {
	Reason string `json:"reason"`
}

func cancelPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reasonReq
	_ = c.BindJSON(&req)
	if err := billing.CancelPayment(store.GetDB(), id, actorID(c), req.Reason); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func rejectPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req reasonReq
	_ = c.BindJSON(&req)
	if err := billing.RejectPayment(store.GetDB(), id, actorID(c), req.Reason); err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

type ensureRentChargeReq struct {
	StayID uint   `json:"stayId" binding:"required"`
	Month  string `json:"month" binding:"required"` // "2006-01"
}

func ensureRentCharge(c *gin.Context) {
	var req ensureRentChargeReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month, expected YYYY-MM"})
		return
	}
	db := store.GetDB()
	var stay models.TenantStay
	if err := db.First(&stay, req.StayID).Error; err != nil {
		writeDomainError(c, billing.ErrNotFound)
		return
	}
	charge, err := billing.EnsureRentCharge(db, &stay, month)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charge": charge})
}

type ensureCommChargeReq struct {
	StayID      uint    `json:"stayId" binding:"required"`
	ProviderID  uint    `json:"providerId" binding:"required"`
	ServiceType string  `json:"serviceType" binding:"required"`
	Month       string  `json:"month" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
}

func ensureCommCharge(c *gin.Context) {
	var req ensureCommChargeReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month, expected YYYY-MM"})
		return
	}
	db := store.GetDB()
	var stay models.TenantStay
	if err := db.First(&stay, req.StayID).Error; err != nil {
		writeDomainError(c, billing.ErrNotFound)
		return
	}
	charge, err := billing.EnsureCommCharge(db, &stay, req.ProviderID, req.ServiceType, month, req.Amount)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charge": charge})
}

type markPaidReq struct {
	Note string `json:"note"`
}

func markChargePaid(c *gin.Context) {
	kind := models.ChargeKind(c.Param("kind"))
	if kind != models.ChargeRent && kind != models.ChargeComm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid charge kind"})
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req markPaidReq
	_ = c.BindJSON(&req)
	payment, err := billing.MarkChargeAsPaid(store.GetDB(), kind, id, actorID(c), req.Note)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

func stayBalance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var asOf time.Time
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asOf, expected YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}
	balance, err := billing.GetStayBalance(store.GetDB(), id, asOf)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}
