package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lendhub/internal/handlers"
	"lendhub/internal/logger"
	"lendhub/internal/marketplace"
	"lendhub/internal/middleware"
	"lendhub/internal/services"
	"lendhub/internal/testutil"
	"lendhub/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "error")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database. Every service sees testutil.RefTime as "now".
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	clock := services.Clock(testutil.Clock)
	settings := services.MarketSettings{
		Grades:             marketplace.DefaultGradeTable,
		ExpiringWindowDays: marketplace.DefaultStatsExpiringWindowDays,
	}

	auditService := services.NewAuditService(db)
	lenderService := services.NewLenderService(db)
	opportunityService := services.NewOpportunityService(db, lenderService, settings, clock)
	ruleService := services.NewRuleService(db, lenderService, opportunityService, clock)
	investmentService := services.NewInvestmentService(db, lenderService, clock)
	autoInvestService := services.NewAutoInvestService(db, lenderService, ruleService, opportunityService, investmentService, auditService, clock)
	snapshotService := services.NewMarketSnapshotService(db, lenderService, opportunityService, settings)
	sessionService := services.NewQuerySessionService(lenderService, opportunityService, settings, clock)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	handlers.RegisterRoutes(router.Group("/api/v1"), handlers.Handlers{
		Opportunity: handlers.NewOpportunityHandler(opportunityService, auditService),
		Lender:      handlers.NewLenderHandler(lenderService, auditService),
		Rule:        handlers.NewRuleHandler(ruleService, auditService),
		Investment:  handlers.NewInvestmentHandler(investmentService, auditService),
		AutoInvest:  handlers.NewAutoInvestHandler(autoInvestService, auditService),
		View:        handlers.NewViewHandler(sessionService),
		Market:      handlers.NewMarketHandler(snapshotService),
	})

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// expect fails the test unless rec carries the wanted status.
func expect(t *testing.T, rec *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)
}

// assertAmount compares a JSON-encoded decimal with want.
func assertAmount(t *testing.T, got any, want string) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Fatalf("expected decimal string, got %T %v", got, got)
	}
	testutil.AssertDecimal(t, decimal.RequireFromString(s), want)
}

// createLender registers a lender and returns its ID.
func (app *testApp) createLender(t *testing.T, email, capital string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Test Lender","email":%q,"initial_capital":%q}`, email, capital)
	result := expect(t, app.request("POST", "/api/v1/lenders", body), http.StatusCreated)
	return result["lender"].(map[string]any)["id"].(string)
}

// listing describes an opportunity to post. Zero fields get defaults.
type listing struct {
	vendorID  string
	category  string
	score     int
	requested string
	min       string
	max       string
	apr       float64
	risk      string
	expiresIn time.Duration
}

// createOpportunity lists an opportunity and returns its ID.
func (app *testApp) createOpportunity(t *testing.T, l listing) string {
	t.Helper()
	if l.category == "" {
		l.category = "fashion"
	}
	if l.requested == "" {
		l.requested = "20000"
	}
	if l.min == "" {
		l.min = "100"
	}
	if l.max == "" {
		l.max = "5000"
	}
	if l.risk == "" {
		l.risk = "low"
	}
	if l.expiresIn == 0 {
		l.expiresIn = 20 * 24 * time.Hour
	}
	if l.apr == 0 {
		l.apr = 12
	}
	body := fmt.Sprintf(`{"vendor_id":%q,"vendor_name":"Vendor %s","category":%q,"merchant_score":%d,
		"requested_amount":%q,"min_investment":%q,"max_investment":%q,"term_months":6,"apr":%g,
		"use_of_funds":"inventory","time_on_platform":12,"expiry_date":%q,"risk_level":%q}`,
		l.vendorID, l.vendorID, l.category, l.score, l.requested, l.min, l.max, l.apr,
		testutil.RefTime.Add(l.expiresIn).Format(time.RFC3339), l.risk)
	result := expect(t, app.request("POST", "/api/v1/opportunities", body), http.StatusCreated)
	return result["opportunity"].(map[string]any)["id"].(string)
}
