package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agenthub-system/config"
	"agenthub-system/internal/database/models"
	"agenthub-system/internal/middleware"
)

type PayoutHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	payout config.PayoutConfig
}

func NewPayoutHandler(db *gorm.DB, redisClient *redis.Client, payout config.PayoutConfig) *PayoutHandler {
	return &PayoutHandler{db: db, redis: redisClient, payout: payout}
}

// RewardRate selects the flat per-unit rate for a batch. The premium rate
// applies to the whole batch once the unit total reaches the threshold;
// this is not a marginal bracket calculation.
func RewardRate(totalUnits int64, cfg config.PayoutConfig) int64 {
	if totalUnits >= cfg.TierThreshold {
		return cfg.PremiumRate
	}
	return cfg.StandardRate
}

// PayoutAmount returns totalUnits * rate with two decimal places.
func PayoutAmount(totalUnits, rate int64) string {
	return decimal.NewFromInt(totalUnits).Mul(decimal.NewFromInt(rate)).StringFixed(2)
}

// buildSalesSummary renders the denormalized text stored on the payout
// request, e.g. "Alice;Bob (15); Carol (3)".
func buildSalesSummary(sales []models.Sale) string {
	parts := make([]string, 0, len(sales))
	for _, s := range sales {
		parts = append(parts, fmt.Sprintf("%s (%d)", s.SaleNames, s.SaleCount))
	}
	return strings.Join(parts, "; ")
}

// RequestPayout bundles every currently confirmed sale of the calling
// agent into one payout request and moves those sales to payout_pending.
// Both writes happen in a single transaction: the original system issued
// them as independent store calls and could leave a payout request
// pointing at sales still marked confirmed.
func (h *PayoutHandler) RequestPayout(c *gin.Context) {
	agent := middleware.AgentFromContext(c)

	var payout models.PayoutRequest
	created := false

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var sales []models.Sale
		if err := tx.Where("agent_id = ? AND status = ?", agent.ID, models.SaleStatusConfirmed).
			Order("id asc").Find(&sales).Error; err != nil {
			return err
		}
		if len(sales) == 0 {
			return nil
		}

		var totalUnits int64
		saleIDs := make(models.Int64Array, 0, len(sales))
		for _, s := range sales {
			totalUnits += s.SaleCount
			saleIDs = append(saleIDs, s.ID)
		}

		rate := RewardRate(totalUnits, h.payout)

		if !models.CanTransition(models.SaleStatusConfirmed, models.SaleStatusPayoutPending) {
			return fmt.Errorf("confirmed sales are not eligible for payout")
		}

		payout = models.PayoutRequest{
			AgentID:         agent.ID,
			AmountRequested: PayoutAmount(totalUnits, rate),
			Status:          models.PayoutStatusRequested,
			SalesData:       buildSalesSummary(sales),
			IncludedSaleIDs: saleIDs,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return err
		}

		// The status guard in the WHERE clause protects against a
		// concurrent payout request racing over the same rows; a short
		// update means someone else got there first and we roll back.
		res := tx.Model(&models.Sale{}).
			Where("id IN ? AND status = ?", []int64(saleIDs), models.SaleStatusConfirmed).
			Update("status", models.SaleStatusPayoutPending)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(saleIDs)) {
			return fmt.Errorf("expected to move %d sales to payout_pending, moved %d", len(saleIDs), res.RowsAffected)
		}

		created = true
		return nil
	})

	if err != nil {
		zap.L().Error("failed to process payout request", zap.Error(err), zap.Int64("agent_id", agent.ID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to process payout request"))
		return
	}

	if !created {
		c.JSON(http.StatusBadRequest, errorResponse("No confirmed sales are currently available for payout"))
		return
	}

	invalidateSalesCaches(c.Request.Context(), h.redis, agent.ID)

	c.JSON(http.StatusOK, successResponse("Payout request submitted successfully!", payout))
}
