package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agenthub-system/internal/database/models"
)

type AdminHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewAdminHandler(db *gorm.DB, redisClient *redis.Client) *AdminHandler {
	return &AdminHandler{db: db, redis: redisClient}
}

func (h *AdminHandler) AllAgents(c *gin.Context) {
	var agents []models.Agent
	if err := h.db.Order("created_at desc").Find(&agents).Error; err != nil {
		zap.L().Error("failed to fetch agents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch all agents"))
		return
	}
	c.JSON(http.StatusOK, agents)
}

type AdminSaleRow struct {
	models.Sale
	AgentName       string `json:"agent_name"`
	AgentInternalID string `json:"agent_internal_id"`
}

func (h *AdminHandler) AllSales(c *gin.Context) {
	var rows []AdminSaleRow
	err := h.db.Model(&models.Sale{}).
		Select("sales.*, agents.name as agent_name, agents.agent_code as agent_internal_id").
		Joins("LEFT JOIN agents ON agents.id = sales.agent_id").
		Order("sales.created_at desc").
		Scan(&rows).Error
	if err != nil {
		zap.L().Error("failed to fetch sales", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch all sales"))
		return
	}

	if rows == nil {
		rows = []AdminSaleRow{}
	}
	c.JSON(http.StatusOK, rows)
}

// setSaleStatus performs the admin overwrite. It deliberately skips the
// transition table: an admin decision always wins, so a rejected sale can
// be re-approved.
func (h *AdminHandler) setSaleStatus(c *gin.Context, status string) {
	saleID, err := strconv.ParseInt(c.Param("saleId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid sale ID"))
		return
	}

	var sale models.Sale
	if err := h.db.First(&sale, saleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Sale not found"))
			return
		}
		zap.L().Error("failed to load sale", zap.Error(err), zap.Int64("sale_id", saleID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update sale"))
		return
	}

	if err := h.db.Model(&sale).Update("status", status).Error; err != nil {
		zap.L().Error("failed to update sale status", zap.Error(err), zap.Int64("sale_id", saleID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update sale"))
		return
	}

	invalidateSalesCaches(c.Request.Context(), h.redis, sale.AgentID)

	c.JSON(http.StatusOK, sale)
}

func (h *AdminHandler) ApproveSale(c *gin.Context) {
	h.setSaleStatus(c, models.SaleStatusConfirmed)
}

func (h *AdminHandler) RejectSale(c *gin.Context) {
	h.setSaleStatus(c, models.SaleStatusRejected)
}

type AdminPayoutRow struct {
	models.PayoutRequest
	AgentName  string `json:"agent_name"`
	AgentEmail string `json:"agent_email"`
}

func (h *AdminHandler) AllPayouts(c *gin.Context) {
	var rows []AdminPayoutRow
	err := h.db.Model(&models.PayoutRequest{}).
		Select("payout_requests.*, agents.name as agent_name, agents.email as agent_email").
		Joins("LEFT JOIN agents ON agents.id = payout_requests.agent_id").
		Order("payout_requests.created_at desc").
		Scan(&rows).Error
	if err != nil {
		zap.L().Error("failed to fetch payouts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch payout requests"))
		return
	}

	if rows == nil {
		rows = []AdminPayoutRow{}
	}
	c.JSON(http.StatusOK, rows)
}

func (h *AdminHandler) setPayoutStatus(c *gin.Context, status string) {
	payoutID, err := strconv.ParseInt(c.Param("payoutId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid payout ID"))
		return
	}

	var payout models.PayoutRequest
	if err := h.db.First(&payout, payoutID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Payout request not found"))
			return
		}
		zap.L().Error("failed to load payout", zap.Error(err), zap.Int64("payout_id", payoutID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update status"))
		return
	}

	if err := h.db.Model(&payout).Update("status", status).Error; err != nil {
		zap.L().Error("failed to update payout status", zap.Error(err), zap.Int64("payout_id", payoutID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update status"))
		return
	}

	c.JSON(http.StatusOK, payout)
}

func (h *AdminHandler) ApprovePayout(c *gin.Context) {
	h.setPayoutStatus(c, models.PayoutStatusApproved)
}

func (h *AdminHandler) CompletePayout(c *gin.Context) {
	h.setPayoutStatus(c, models.PayoutStatusCompleted)
}

func (h *AdminHandler) GetAgentDetails(c *gin.Context) {
	agentID, err := strconv.ParseInt(c.Param("agentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid agent ID"))
		return
	}

	var agent models.Agent
	if err := h.db.First(&agent, agentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Agent not found"))
			return
		}
		zap.L().Error("failed to fetch agent details", zap.Error(err), zap.Int64("agent_id", agentID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch agent details"))
		return
	}

	c.JSON(http.StatusOK, agent)
}

type AdminUpdateAgentRequest struct {
	Name              *string `json:"name,omitempty"`
	Email             *string `json:"email,omitempty"`
	ContactDetails    *string `json:"contact_details,omitempty"`
	Province          *string `json:"province,omitempty"`
	Town              *string `json:"town,omitempty"`
	Address           *string `json:"address,omitempty"`
	AboutMe           *string `json:"about_me,omitempty"`
	Role              *string `json:"role,omitempty"`
	TrainingCompleted *bool   `json:"training_completed,omitempty"`
}

func (h *AdminHandler) UpdateAgentDetails(c *gin.Context) {
	agentID, err := strconv.ParseInt(c.Param("agentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid agent ID"))
		return
	}

	var req AdminUpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	if req.Role != nil && *req.Role != models.RoleConsultant && *req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid role"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.ContactDetails != nil {
		updates["contact_details"] = *req.ContactDetails
	}
	if req.Province != nil {
		updates["province"] = *req.Province
	}
	if req.Town != nil {
		updates["town"] = *req.Town
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.AboutMe != nil {
		updates["about_me"] = *req.AboutMe
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.TrainingCompleted != nil {
		updates["training_completed"] = *req.TrainingCompleted
	}

	var agent models.Agent
	if err := h.db.First(&agent, agentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Agent not found"))
			return
		}
		zap.L().Error("failed to load agent", zap.Error(err), zap.Int64("agent_id", agentID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update agent details"))
		return
	}

	if len(updates) > 0 {
		if err := h.db.Model(&agent).Updates(updates).Error; err != nil {
			zap.L().Error("failed to update agent details", zap.Error(err), zap.Int64("agent_id", agentID))
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to update agent details"))
			return
		}
	}

	c.JSON(http.StatusOK, successResponse("Agent details updated", agent))
}

type UpdateAgentAuthRequest struct {
	NewPassword string `json:"new_password"`
}

func (h *AdminHandler) UpdateAgentAuth(c *gin.Context) {
	agentID, err := strconv.ParseInt(c.Param("agentId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid agent ID"))
		return
	}

	var req UpdateAgentAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.NewPassword) < 6 {
		c.JSON(http.StatusBadRequest, errorResponse("Password must be at least 6 characters"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update password"))
		return
	}

	res := h.db.Model(&models.Agent{}).Where("id = ?", agentID).Update("password_hash", string(hash))
	if res.Error != nil {
		zap.L().Error("failed to update password", zap.Error(res.Error), zap.Int64("agent_id", agentID))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update password"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Agent not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Agent's password changed", nil))
}

// SearchAgents is the admin free-text search: case-insensitive partial
// match OR-combined across name, email and contact details.
func (h *AdminHandler) SearchAgents(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusOK, []models.Agent{})
		return
	}

	term := "%" + strings.ToLower(query) + "%"
	var agents []models.Agent
	err := h.db.
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(contact_details) LIKE ?", term, term, term).
		Find(&agents).Error
	if err != nil {
		zap.L().Error("agent search failed", zap.Error(err), zap.String("query", query))
		c.JSON(http.StatusInternalServerError, errorResponse("Agent search failed"))
		return
	}

	if agents == nil {
		agents = []models.Agent{}
	}
	c.JSON(http.StatusOK, agents)
}
