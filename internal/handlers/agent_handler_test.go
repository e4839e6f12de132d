package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agenthub-system/internal/database/models"
)

func TestGetProfile(t *testing.T) {
	ts := newTestServer(t)
	agent := ts.createAgent(t, "Thandi", "thandi@example.com", models.RoleConsultant, "Gauteng")

	w := ts.request(t, http.MethodGet, "/api/get-agent-profile", ts.tokenFor(t, agent), nil)
	requireStatus(t, w, http.StatusOK)

	var got models.Agent
	decodeJSON(t, w, &got)
	assert.Equal(t, agent.ID, got.ID)
	assert.Equal(t, "thandi@example.com", got.Email)
	assert.NotContains(t, w.Body.String(), agent.PasswordHash)
}

func TestUpdateProfile_SelfOnly(t *testing.T) {
	ts := newTestServer(t)
	agent := ts.createAgent(t, "Thandi", "thandi@example.com", models.RoleConsultant, "Gauteng")
	other := ts.createAgent(t, "Sipho", "sipho@example.com", models.RoleConsultant, "Limpopo")

	w := ts.request(t, http.MethodPut, "/api/update-agent-profile/"+itoa(other.ID), ts.tokenFor(t, agent), map[string]interface{}{
		"town": "Polokwane",
	})
	requireStatus(t, w, http.StatusForbidden)

	w = ts.request(t, http.MethodPut, "/api/update-agent-profile/"+itoa(agent.ID), ts.tokenFor(t, agent), map[string]interface{}{
		"town":     "Soweto",
		"about_me": "Field agent since 2020",
	})
	requireStatus(t, w, http.StatusOK)

	require.NoError(t, ts.db.First(agent, agent.ID).Error)
	assert.Equal(t, "Soweto", agent.Town)
	assert.Equal(t, "Field agent since 2020", agent.AboutMe)
}

func TestGetAgentSales_Summary(t *testing.T) {
	ts := newTestServer(t)
	agent := ts.createAgent(t, "Thandi", "thandi@example.com", models.RoleConsultant, "Gauteng")
	ts.createSale(t, agent.ID, 5, "Alice", models.SaleStatusPending)
	ts.createSale(t, agent.ID, 3, "Bob", models.SaleStatusPending)
	ts.createSale(t, agent.ID, 4, "Carol", models.SaleStatusConfirmed)
	ts.createSale(t, agent.ID, 9, "Ignored", models.SaleStatusRejected)
	ts.createSale(t, agent.ID, 2, "AlsoIgnored", models.SaleStatusPayoutPending)

	w := ts.request(t, http.MethodGet, "/api/get-agent-sales/"+itoa(agent.ID), ts.tokenFor(t, agent), nil)
	requireStatus(t, w, http.StatusOK)

	var summary AgentSalesSummary
	decodeJSON(t, w, &summary)
	assert.Equal(t, time.Now().Format("January 2006"), summary.Period)
	assert.Equal(t, int64(8), summary.PendingSales)
	assert.Equal(t, int64(4), summary.ConfirmedSales)
	assert.Equal(t, "R800.00", summary.AmountEarned)
}

func TestGetAgentSales_PremiumRate(t *testing.T) {
	ts := newTestServer(t)
	agent := ts.createAgent(t, "Thandi", "thandi@example.com", models.RoleConsultant, "Gauteng")
	ts.createSale(t, agent.ID, 12, "Batch", models.SaleStatusConfirmed)

	w := ts.request(t, http.MethodGet, "/api/get-agent-sales/"+itoa(agent.ID), ts.tokenFor(t, agent), nil)
	requireStatus(t, w, http.StatusOK)

	var summary AgentSalesSummary
	decodeJSON(t, w, &summary)
	assert.Equal(t, "R4800.00", summary.AmountEarned)
}

// The summary is cached per agent and month; confirming a sale must not
// serve the stale figure.
func TestGetAgentSales_CacheInvalidatedOnApproval(t *testing.T) {
	ts := newTestServer(t)
	agent := ts.createAgent(t, "Thandi", "thandi@example.com", models.RoleConsultant, "Gauteng")
	admin := ts.createAgent(t, "Admin", "admin@example.com", models.RoleAdmin, "Gauteng")
	sale := ts.createSale(t, agent.ID, 5, "Alice", models.SaleStatusPending)

	w := ts.request(t, http.MethodGet, "/api/get-agent-sales/"+itoa(agent.ID), ts.tokenFor(t, agent), nil)
	requireStatus(t, w, http.StatusOK)
	var summary AgentSalesSummary
	decodeJSON(t, w, &summary)
	assert.Equal(t, int64(5), summary.PendingSales)

	w = ts.request(t, http.MethodPut, "/api/admin/approve-sale/"+itoa(sale.ID), ts.tokenFor(t, admin), nil)
	requireStatus(t, w, http.StatusOK)

	w = ts.request(t, http.MethodGet, "/api/get-agent-sales/"+itoa(agent.ID), ts.tokenFor(t, agent), nil)
	requireStatus(t, w, http.StatusOK)
	decodeJSON(t, w, &summary)
	assert.Equal(t, int64(0), summary.PendingSales)
	assert.Equal(t, int64(5), summary.ConfirmedSales)
}

func TestBuildSalesSummaryReport_EmptySales(t *testing.T) {
	summary := BuildSalesSummaryReport(nil, testPayoutConfig, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "March 2026", summary.Period)
	assert.Zero(t, summary.PendingSales)
	assert.Zero(t, summary.ConfirmedSales)
	assert.Equal(t, "R0.00", summary.AmountEarned)
}

func TestTopPerformers(t *testing.T) {
	ts := newTestServer(t)
	first := ts.createAgent(t, "Thandi", "thandi@example.com", models.RoleConsultant, "Gauteng")
	second := ts.createAgent(t, "Sipho", "sipho@example.com", models.RoleConsultant, "Limpopo")
	ts.createAgent(t, "NoSales", "nosales@example.com", models.RoleConsultant, "Free State")

	ts.createSale(t, first.ID, 10, "A", models.SaleStatusConfirmed)
	ts.createSale(t, first.ID, 5, "B", models.SaleStatusPayoutPending)
	ts.createSale(t, second.ID, 8, "C", models.SaleStatusConfirmed)
	ts.createSale(t, second.ID, 100, "NotCounted", models.SaleStatusPending)

	w := ts.request(t, http.MethodGet, "/api/get-top-performers", ts.tokenFor(t, first), nil)
	requireStatus(t, w, http.StatusOK)

	var performers []TopPerformer
	decodeJSON(t, w, &performers)
	require.Len(t, performers, 2)
	assert.Equal(t, first.ID, performers[0].AgentID)
	assert.Equal(t, int64(15), performers[0].TotalUnits)
	assert.Equal(t, second.ID, performers[1].AgentID)
	assert.Equal(t, int64(8), performers[1].TotalUnits)
}

func TestUploadProfilePicture(t *testing.T) {
	ts := newTestServer(t)
	agent := ts.createAgent(t, "Thandi", "thandi@example.com", models.RoleConsultant, "Gauteng")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("profileImage", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-profile-picture", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.tokenFor(t, agent))

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	requireStatus(t, w, http.StatusOK)

	require.NoError(t, ts.db.First(agent, agent.ID).Error)
	assert.Contains(t, agent.PhotoURL, "http://storage.local/profile-pictures/public/")
	assert.Len(t, ts.store.objects, 1)
}

func TestUploadProfilePicture_MissingFile(t *testing.T) {
	ts := newTestServer(t)
	agent := ts.createAgent(t, "Thandi", "thandi@example.com", models.RoleConsultant, "Gauteng")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-profile-picture", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.tokenFor(t, agent))

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	requireStatus(t, w, http.StatusBadRequest)
}
