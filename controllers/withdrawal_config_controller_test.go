package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fund-planning-api/middleware"
	"fund-planning-api/models"
	"fund-planning-api/workflow"

	"github.com/gin-gonic/gin"
)

type fakePolicyAdmin struct {
	rows      map[string]models.WithdrawalConfig
	upserted  *workflow.WithdrawalConfig
	updatedBy int
}

func (f *fakePolicyAdmin) List(context.Context) ([]models.WithdrawalConfig, error) {
	out := make([]models.WithdrawalConfig, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakePolicyAdmin) Find(_ context.Context, moduleType string) (*models.WithdrawalConfig, error) {
	row, ok := f.rows[moduleType]
	if !ok {
		return nil, workflow.NotFoundError("withdrawal config", moduleType)
	}
	return &row, nil
}

func (f *fakePolicyAdmin) Upsert(_ context.Context, cfg workflow.WithdrawalConfig, updatedBy int) (*models.WithdrawalConfig, error) {
	f.upserted = &cfg
	f.updatedBy = updatedBy
	row := models.WithdrawalConfig{
		ModuleType:      cfg.ModuleType,
		AllowedStatuses: workflow.StatusNames(cfg.AllowedStatuses),
		TimeLimitHours:  cfg.TimeLimitHours,
		MaxAttempts:     cfg.MaxAttempts,
		RequireApproval: cfg.RequireApproval,
		IsActive:        true,
	}
	f.rows[cfg.ModuleType] = row
	return &row, nil
}

func (f *fakePolicyAdmin) Deactivate(_ context.Context, moduleType string, _ int) error {
	row, ok := f.rows[moduleType]
	if !ok {
		return workflow.NotFoundError("withdrawal config", moduleType)
	}
	row.IsActive = false
	f.rows[moduleType] = row
	return nil
}

func newConfigRouter(admin PolicyAdmin) *gin.Engine {
	ctrl := NewWithdrawalConfigController(admin)
	router := gin.New()
	group := router.Group("/admin/withdrawal-configs", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, 3)
		c.Next()
	})
	group.GET("", ctrl.List)
	group.GET("/:moduleType", ctrl.Get)
	group.PUT("/:moduleType", ctrl.Put)
	group.DELETE("/:moduleType", ctrl.Delete)
	return router
}

func sendJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(w *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}

func TestPutWithdrawalConfig(t *testing.T) {
	admin := &fakePolicyAdmin{rows: map[string]models.WithdrawalConfig{}}
	router := newConfigRouter(admin)

	w := sendJSON(router, http.MethodPut, "/admin/withdrawal-configs/predict",
		`{"allowed_statuses":["submitted","pending_withdrawal"],"time_limit_hours":72,"max_attempts":2,"require_approval":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	cfg := admin.upserted
	if cfg == nil || cfg.ModuleType != "predict" || cfg.MaxAttempts != 2 || !cfg.RequireApproval {
		t.Fatalf("upserted = %+v", cfg)
	}
	if len(cfg.AllowedStatuses) != 2 || cfg.AllowedStatuses[1] != workflow.StatusPendingWithdrawal {
		t.Fatalf("allowed statuses = %v", cfg.AllowedStatuses)
	}
	if admin.updatedBy != 3 {
		t.Fatalf("updatedBy = %d", admin.updatedBy)
	}
}

func TestPutWithdrawalConfigValidation(t *testing.T) {
	admin := &fakePolicyAdmin{rows: map[string]models.WithdrawalConfig{}}
	router := newConfigRouter(admin)

	for _, body := range []string{
		`{"allowed_statuses":["SUBMITTED"]}`,
		`{"allowed_statuses":["ARCHIVED"],"max_attempts":1}`,
		`{"allowed_statuses":["SUBMITTED"],"max_attempts":-1}`,
		`{"allowed_statuses":["SUBMITTED"],"time_limit_hours":-5,"max_attempts":1}`,
	} {
		if w := sendJSON(router, http.MethodPut, "/admin/withdrawal-configs/predict", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", body, w.Code)
		}
	}
	if admin.upserted != nil {
		t.Fatalf("invalid config reached the store: %+v", admin.upserted)
	}
}

func TestGetAndDeleteWithdrawalConfig(t *testing.T) {
	admin := &fakePolicyAdmin{rows: map[string]models.WithdrawalConfig{
		"audit": {ModuleType: "audit", MaxAttempts: 1, IsActive: true},
	}}
	router := newConfigRouter(admin)

	if w := sendJSON(router, http.MethodGet, "/admin/withdrawal-configs/audit", ""); w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if w := sendJSON(router, http.MethodGet, "/admin/withdrawal-configs/predict", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing config status = %d", w.Code)
	}
	if w := sendJSON(router, http.MethodDelete, "/admin/withdrawal-configs/audit", ""); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if admin.rows["audit"].IsActive {
		t.Fatalf("config still active after delete")
	}
	if w := sendJSON(router, http.MethodGet, "/admin/withdrawal-configs", ""); w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
}
