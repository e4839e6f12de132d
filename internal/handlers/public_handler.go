package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"agenthub-system/internal/database/models"
)

type PublicHandler struct {
	db *gorm.DB
}

func NewPublicHandler(db *gorm.DB) *PublicHandler {
	return &PublicHandler{db: db}
}

// AllAgents serves the unscoped public directory used by the map view.
func (h *PublicHandler) AllAgents(c *gin.Context) {
	var agents []models.PublicAgent
	err := h.db.Model(&models.Agent{}).
		Select("id, name, province, town, photo_url").
		Find(&agents).Error
	if err != nil {
		zap.L().Error("failed to fetch public agents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error fetching agent data"))
		return
	}

	c.JSON(http.StatusOK, agents)
}

// SearchByProvince is the scoped search: an empty query returns an empty
// result set rather than the whole directory.
func (h *PublicHandler) SearchByProvince(c *gin.Context) {
	province := strings.TrimSpace(c.Query("province"))
	if province == "" {
		c.JSON(http.StatusOK, []models.PublicAgentProfile{})
		return
	}

	var agents []models.PublicAgentProfile
	err := h.db.Model(&models.Agent{}).
		Select("id, name, province, town, about_me, contact_details, email, photo_url").
		Where("LOWER(province) LIKE ?", "%"+strings.ToLower(province)+"%").
		Find(&agents).Error
	if err != nil {
		zap.L().Error("failed to search public agents", zap.Error(err), zap.String("province", province))
		c.JSON(http.StatusInternalServerError, errorResponse("Error fetching agent data"))
		return
	}

	if agents == nil {
		agents = []models.PublicAgentProfile{}
	}
	c.JSON(http.StatusOK, agents)
}
