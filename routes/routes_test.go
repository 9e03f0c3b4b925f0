package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fund-planning-api/controllers"
	"fund-planning-api/middleware"
	"fund-planning-api/models"
	"fund-planning-api/services"
	"fund-planning-api/workflow"
	"fund-planning-api/workflow/workflowtest"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type allUsersActive struct{}

func (allUsersActive) UserActive(context.Context, int) (bool, error) { return true, nil }

type emptyStores struct{}

func (emptyStores) ListForTarget(context.Context, string, int) ([]models.WorkflowAuditLog, error) {
	return nil, nil
}

func (emptyStores) ListRecords(context.Context, services.RecordFilter) ([]workflow.Record, int64, error) {
	return nil, 0, nil
}

func (emptyStores) FindActiveByEmail(_ context.Context, email string) (*models.User, error) {
	return nil, workflow.NotFoundError("user", email)
}

func (emptyStores) List(context.Context) ([]models.WithdrawalConfig, error) { return nil, nil }

func (emptyStores) Find(_ context.Context, moduleType string) (*models.WithdrawalConfig, error) {
	return nil, workflow.NotFoundError("withdrawal config", moduleType)
}

func (emptyStores) Upsert(context.Context, workflow.WithdrawalConfig, int) (*models.WithdrawalConfig, error) {
	return nil, errors.New("not implemented")
}

func (emptyStores) Deactivate(context.Context, string, int) error { return nil }

type emptyInbox struct{}

func (emptyInbox) List(context.Context, uint, bool, int, int) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (emptyInbox) MarkRead(context.Context, uint, uint) error { return nil }

func newTestRouter(t *testing.T, health func() error) (*gin.Engine, *middleware.Sessions) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := middleware.NewSessions("routes-secret", time.Hour)
	at := time.Now().Add(-time.Hour)
	records := workflowtest.NewRecordStore(workflow.Record{
		ID: 12, OrganizationID: 4, OwnerID: 31, ModuleType: workflow.ModulePredict,
		Status: workflow.StatusSubmitted, SubmittedAt: &at, Version: 1,
	})
	engine := workflow.NewEngine(records, workflowtest.NewPolicyStore(), workflowtest.Gate{}, &workflowtest.AuditLog{})

	stores := emptyStores{}
	router := gin.New()
	SetupRoutes(router, Handlers{
		Auth:              controllers.NewAuthController(stores, sessions),
		Records:           controllers.NewRecordController(engine, nil, stores, stores, zerolog.Nop()),
		WithdrawalConfigs: controllers.NewWithdrawalConfigController(stores),
		Notifications:     controllers.NewNotificationController(emptyInbox{}),
		Sessions:          sessions,
		Users:             allUsersActive{},
		Health:            health,
	})
	return router, sessions
}

func get(router http.Handler, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestPublicAndProtectedRoutes(t *testing.T) {
	router, sessions := newTestRouter(t, nil)
	ownerToken, _, _ := sessions.Issue(31, models.RoleOrganizationUser, 4, "owner@example.org")

	if code := get(router, "/api/v1/health", ""); code != http.StatusOK {
		t.Fatalf("health = %d", code)
	}
	if code := get(router, "/api/v1/records/12", ""); code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated record read = %d", code)
	}
	if code := get(router, "/api/v1/records/12", ownerToken); code != http.StatusOK {
		t.Fatalf("authenticated record read = %d", code)
	}
	if code := get(router, "/api/v1/notifications", ownerToken); code != http.StatusOK {
		t.Fatalf("notifications = %d", code)
	}
	if code := get(router, "/api/v1/nope", ownerToken); code != http.StatusNotFound {
		t.Fatalf("unknown route = %d", code)
	}
}

func TestRoleGatedRoutes(t *testing.T) {
	router, sessions := newTestRouter(t, nil)
	ownerToken, _, _ := sessions.Issue(31, models.RoleOrganizationUser, 4, "owner@example.org")
	reviewerToken, _, _ := sessions.Issue(7, models.RoleReviewer, 0, "reviewer@example.org")
	adminToken, _, _ := sessions.Issue(3, models.RoleAdmin, 0, "admin@example.org")

	cases := []struct {
		path  string
		token string
		want  int
	}{
		{"/api/v1/reviews/pending-withdrawals", ownerToken, http.StatusForbidden},
		{"/api/v1/reviews/pending-withdrawals", reviewerToken, http.StatusOK},
		{"/api/v1/reviews/pending-withdrawals", adminToken, http.StatusOK},
		{"/api/v1/admin/withdrawal-configs", reviewerToken, http.StatusForbidden},
		{"/api/v1/admin/withdrawal-configs", adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		if code := get(router, tc.path, tc.token); code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.path, code, tc.want)
		}
	}
}

func TestHealthReportsDegradedDatabase(t *testing.T) {
	router, _ := newTestRouter(t, func() error { return errors.New("connection refused") })
	if code := get(router, "/api/v1/health", ""); code != http.StatusServiceUnavailable {
		t.Fatalf("health = %d", code)
	}
}
