package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agenthub-system/config"
	"agenthub-system/internal/database/models"
	"agenthub-system/internal/middleware"
	"agenthub-system/internal/utils"
)

var testPayoutConfig = config.PayoutConfig{
	TierThreshold: 11,
	StandardRate:  200,
	PremiumRate:   400,
}

var testAuthConfig = config.AuthConfig{
	JWTSecret: "test-secret",
	TokenTTL:  1,
}

type testServer struct {
	db     *gorm.DB
	redis  *goredis.Client
	router *gin.Engine
	store  *fakeBlobStore
}

type fakeBlobStore struct {
	objects map[string][]byte
}

func (f *fakeBlobStore) Upload(_ context.Context, objectName string, r io.Reader, _ int64, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[objectName] = data
	return "http://storage.local/profile-pictures/" + objectName, nil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Agent{}, &models.Sale{}, &models.PayoutRequest{}))

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := &fakeBlobStore{}

	authHandler := NewAuthHandler(db, testAuthConfig)
	publicHandler := NewPublicHandler(db)
	salesHandler := NewSalesHandler(db, rdb)
	payoutHandler := NewPayoutHandler(db, rdb, testPayoutConfig)
	agentHandler := NewAgentHandler(db, rdb, store, testPayoutConfig, config.StorageConfig{MaxUploadMB: 1})
	adminHandler := NewAdminHandler(db, rdb)

	secret := []byte(testAuthConfig.JWTSecret)

	r := gin.New()
	api := r.Group("/api")
	{
		api.GET("/public/all-agents", publicHandler.AllAgents)
		api.GET("/public/agents", publicHandler.SearchByProvince)
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
	}

	protected := r.Group("/api")
	protected.Use(middleware.JWTAuth(db, secret))
	{
		protected.POST("/log-sale", salesHandler.LogSale)
		protected.POST("/request-payout", payoutHandler.RequestPayout)
		protected.GET("/get-agent-profile", agentHandler.GetProfile)
		protected.PUT("/update-agent-profile/:agentId", agentHandler.UpdateProfile)
		protected.POST("/upload-profile-picture", agentHandler.UploadProfilePicture)
		protected.GET("/get-agent-sales/:agentId", agentHandler.GetAgentSales)
		protected.GET("/get-top-performers", agentHandler.TopPerformers)
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.JWTAuth(db, secret), middleware.RequireAdmin())
	{
		admin.GET("/all-agents", adminHandler.AllAgents)
		admin.GET("/all-sales", adminHandler.AllSales)
		admin.PUT("/approve-sale/:saleId", adminHandler.ApproveSale)
		admin.PUT("/reject-sale/:saleId", adminHandler.RejectSale)
		admin.GET("/all-payouts", adminHandler.AllPayouts)
		admin.PUT("/approve-payout/:payoutId", adminHandler.ApprovePayout)
		admin.PUT("/complete-payout/:payoutId", adminHandler.CompletePayout)
		admin.GET("/get-agent-details/:agentId", adminHandler.GetAgentDetails)
		admin.PUT("/update-agent-details/:agentId", adminHandler.UpdateAgentDetails)
		admin.PUT("/update-agent-auth/:agentId", adminHandler.UpdateAgentAuth)
		admin.GET("/search-agents", adminHandler.SearchAgents)
	}

	return &testServer{db: db, redis: rdb, router: r, store: store}
}

func (ts *testServer) createAgent(t *testing.T, name, email, role, province string) *models.Agent {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	agent := &models.Agent{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		AgentCode:    fmt.Sprintf("CEA-%06d", time.Now().UnixNano()%1000000),
		Province:     province,
	}
	require.NoError(t, ts.db.Create(agent).Error)
	return agent
}

func (ts *testServer) tokenFor(t *testing.T, agent *models.Agent) string {
	t.Helper()
	token, _, err := utils.GenerateToken([]byte(testAuthConfig.JWTSecret), agent.ID, agent.Email, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) createSale(t *testing.T, agentID, count int64, names, status string) *models.Sale {
	t.Helper()
	sale := &models.Sale{AgentID: agentID, SaleCount: count, SaleNames: names, Status: status}
	require.NoError(t, ts.db.Create(sale).Error)
	return sale
}

func (ts *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func itoa(id int64) string {
	return fmt.Sprintf("%d", id)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}
