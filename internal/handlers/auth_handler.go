package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agenthub-system/config"
	"agenthub-system/internal/database/models"
	"agenthub-system/internal/utils"
)

type AuthHandler struct {
	db   *gorm.DB
	auth config.AuthConfig
}

func NewAuthHandler(db *gorm.DB, auth config.AuthConfig) *AuthHandler {
	return &AuthHandler{db: db, auth: auth}
}

type RegisterRequest struct {
	Name              string `json:"name" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=6"`
	ContactDetails    string `json:"contact_details"`
	Province          string `json:"province"`
	Town              string `json:"town"`
	AboutMe           string `json:"about_me"`
	TrainingCompleted bool   `json:"training_completed"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Core user details are required"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create agent record"))
		return
	}

	agent := models.Agent{
		Name:              req.Name,
		Email:             req.Email,
		PasswordHash:      string(hash),
		Role:              models.RoleConsultant,
		AgentCode:         utils.GenerateAgentCode(),
		ContactDetails:    req.ContactDetails,
		Province:          req.Province,
		Town:              req.Town,
		AboutMe:           req.AboutMe,
		TrainingCompleted: req.TrainingCompleted,
	}

	var count int64
	h.db.Model(&models.Agent{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, errorResponse("An account with this email already exists"))
		return
	}

	if err := h.db.Create(&agent).Error; err != nil {
		zap.L().Error("failed to create agent", zap.Error(err), zap.String("email", req.Email))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create agent record"))
		return
	}

	token, exp, err := utils.GenerateToken([]byte(h.auth.JWTSecret), agent.ID, agent.Email, time.Duration(h.auth.TokenTTL)*time.Hour)
	if err != nil {
		zap.L().Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create agent record"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Agent registered successfully", gin.H{
		"token":      token,
		"expires_at": exp,
		"agent":      agent,
	}))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Email and password are required"))
		return
	}

	var agent models.Agent
	if err := h.db.Where("email = ?", req.Email).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
			return
		}
		zap.L().Error("login lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to sign in"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	token, exp, err := utils.GenerateToken([]byte(h.auth.JWTSecret), agent.ID, agent.Email, time.Duration(h.auth.TokenTTL)*time.Hour)
	if err != nil {
		zap.L().Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to sign in"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Signed in successfully", gin.H{
		"token":      token,
		"expires_at": exp,
		"agent":      agent,
	}))
}
