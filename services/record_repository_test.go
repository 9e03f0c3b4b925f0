package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"fund-planning-api/workflow"
)

var recordColumns = []string{
	"record_id", "organization_id", "owner_id", "module_type", "title", "fiscal_year",
	"status", "submitted_at", "withdrawal_attempts", "remark", "version", "updated_at",
}

const selectRecord = "SELECT \\* FROM .fund_records. WHERE record_id = \\?"

func TestRecordRepositoryFindByIDMapsRow(t *testing.T) {
	submitted := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	db, script := newScriptedGormDB(t, queryExpect(selectRecord, recordColumns,
		[]driver.Value{int64(12), int64(4), int64(31), "predict", "FY27 forecast", int64(2027),
			"pending_withdrawal", submitted, int64(1), nil, int64(6), submitted},
	))

	rec, err := NewRecordRepository(db).FindByID(context.Background(), 12)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	assertScriptDone(t, script)

	if rec.Status != workflow.StatusPendingWithdrawal {
		t.Fatalf("status = %s", rec.Status)
	}
	if rec.OwnerID != 31 || rec.OrganizationID != 4 || rec.ModuleType != "predict" {
		t.Fatalf("unexpected ownership fields: %+v", rec)
	}
	if rec.Version != 6 || rec.WithdrawalAttempts != 1 {
		t.Fatalf("version/attempts = %d/%d", rec.Version, rec.WithdrawalAttempts)
	}
	if rec.SubmittedAt == nil || !rec.SubmittedAt.Equal(submitted) {
		t.Fatalf("submitted_at = %v", rec.SubmittedAt)
	}
}

func TestRecordRepositoryFindByIDNotFound(t *testing.T) {
	db, script := newScriptedGormDB(t, queryExpect(selectRecord, recordColumns))

	_, err := NewRecordRepository(db).FindByID(context.Background(), 99)
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	assertScriptDone(t, script)
}

func TestRecordRepositoryRejectsUnknownStatus(t *testing.T) {
	db, _ := newScriptedGormDB(t, queryExpect(selectRecord, []string{"record_id", "status", "version"},
		[]driver.Value{int64(3), "ARCHIVED", int64(1)},
	))

	if _, err := NewRecordRepository(db).FindByID(context.Background(), 3); err == nil {
		t.Fatalf("a row with an unknown status must not load")
	}
}

func TestRecordRepositoryUpdateBumpsVersion(t *testing.T) {
	db, script := newScriptedGormDB(t,
		execExpect("UPDATE .fund_records. SET .* WHERE record_id = \\? AND version = \\?", 1),
	)

	rec := &workflow.Record{ID: 5, Status: workflow.StatusSubmitted, Version: 3}
	if err := NewRecordRepository(db).Update(context.Background(), rec, 3); err != nil {
		t.Fatalf("Update: %v", err)
	}
	assertScriptDone(t, script)

	if rec.Version != 4 {
		t.Fatalf("version = %d, want 4", rec.Version)
	}
	args := script.argsOf(0)
	if len(args) < 2 {
		t.Fatalf("update sent %d args", len(args))
	}
	if id, version := args[len(args)-2].Value, args[len(args)-1].Value; id != int64(5) || version != int64(3) {
		t.Fatalf("where args = %v, %v", id, version)
	}
}

func TestRecordRepositoryUpdateStaleVersion(t *testing.T) {
	db, script := newScriptedGormDB(t,
		execExpect("UPDATE .fund_records. SET .* WHERE record_id = \\? AND version = \\?", 0),
	)

	rec := &workflow.Record{ID: 5, Status: workflow.StatusPendingWithdrawal, Version: 3}
	err := NewRecordRepository(db).Update(context.Background(), rec, 3)
	if !errors.Is(err, workflow.ErrConcurrentModification) {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
	if !workflow.Retryable(err) {
		t.Fatalf("conflicts should be retryable")
	}
	if rec.Version != 3 {
		t.Fatalf("version must stay at 3 on conflict, got %d", rec.Version)
	}
	assertScriptDone(t, script)
}
