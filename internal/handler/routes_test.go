package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizex-academy/portal-api/internal/models"
	"github.com/bizex-academy/portal-api/internal/service"
	"github.com/bizex-academy/portal-api/internal/store/memory"
)

const routerTestSecret = "router-test-secret"

// newTestRouter wires the full route table over the in-memory store, the same
// topology main builds under STORE_DRIVER=memory.
func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	authSvc := service.NewAuthService(store.Users(), nil, nil, service.AuthConfig{
		AccessTokenSecret: routerTestSecret,
		AccessTokenExpiry: 15 * time.Minute,
	})

	router := gin.New()
	RegisterRoutes(router, Handlers{
		Auth:        NewAuthHandler(authSvc),
		Catalog:     NewCatalogHandler(service.NewCatalogService(store.Courses(), store.Cycles(), store.Lessons(), store.TeamMembers(), nil, time.Minute, nil, nil)),
		Roster:      NewRosterHandler(service.NewRosterService(store.Students(), store.Enrollments(), store.Payments(), store.Courses(), store.Cycles(), nil, time.Minute, nil, nil)),
		Enrollments: NewEnrollmentHandler(service.NewEnrollmentService(store.Enrollments(), store.Payments(), store.Students(), store.Courses(), store.Cycles(), store.TeamMembers(), nil, nil, nil)),
		Workflow:    NewWorkflowHandler(service.NewWorkflowService(store.Workflows(), store.Attendance(), store.Lessons(), store.Cycles(), store.Enrollments(), nil, nil)),
		Team:        NewTeamHandler(service.NewTeamService(store.TeamMembers(), nil, nil)),
		Metrics:     NewMetricsHandler(service.NewMetricsService()),
	}, RouteDeps{Auth: authSvc, Audit: store.Users()})

	return router, store
}

func signTestToken(t *testing.T, role models.UserRole) string {
	t.Helper()
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		Email:  "staff@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routerTestSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestRoutesRejectUnauthenticatedRequests(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/courses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutesForbidMentorWrites(t *testing.T) {
	router, _ := newTestRouter(t)
	mentor := signTestToken(t, models.RoleMentor)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/courses", mentor, service.CourseRequest{Name: "Scaling Up"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/courses", mentor, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIntakeThroughLedgerOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)
	staff := signTestToken(t, models.RoleStaff)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/courses", staff, service.CourseRequest{Name: "Business Express"})
	require.Equal(t, http.StatusCreated, rec.Code)
	courseID := decodeData(t, rec)["id"].(string)

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rec = doJSON(t, router, http.MethodPost, "/api/v1/courses/"+courseID+"/cycles", staff, service.CycleRequest{
		Name:      "Cohort 12",
		StartDate: start,
		EndDate:   start.AddDate(0, 3, 0),
		Status:    models.CycleStatusActive,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	cycleID := decodeData(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/students", staff, service.IntakeStudentRequest{
		FullName:   "Nino K",
		Email:      "nino@example.com",
		Phone:      "+995555123456",
		CourseID:   courseID,
		CycleID:    cycleID,
		DealAmount: 9000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	studentID := decodeData(t, rec)["id"].(string)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/students/%s/enrollments/%s/%s", studentID, courseID, cycleID), staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ledger := decodeData(t, rec)
	assert.Equal(t, 9000.0, ledger["deal_amount"])
	assert.Equal(t, 9000.0, ledger["balance"])
	assert.Equal(t, string(models.PaymentStatusUnpaid), ledger["payment_status"])
}

func TestLoginRejectsUnknownUserOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
		Email:    "admin@example.com",
		Password: "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
