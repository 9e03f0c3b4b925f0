package workflow

import (
	"testing"
	"time"
)

func TestTransitionTableIsTotal(t *testing.T) {
	expected := map[Status]map[Operation]Status{
		StatusDraft:             {OpSubmit: StatusSubmitted},
		StatusUnfilled:          {OpSubmit: StatusSubmitted},
		StatusSubmitted:         {OpWithdraw: StatusPendingWithdrawal, OpWithdrawDirect: StatusDraft, OpApprove: StatusApproved, OpReject: StatusRejected},
		StatusPendingWithdrawal: {OpCancelWithdrawal: StatusSubmitted, OpApproveWithdrawal: StatusDraft, OpRejectWithdrawal: StatusSubmitted},
		StatusApproved:          {},
		StatusRejected:          {OpSubmit: StatusSubmitted},
	}

	for _, from := range Statuses() {
		for _, op := range Operations() {
			to, ok := Next(from, op)
			want, wantOK := expected[from][op]
			if ok != wantOK || to != want {
				t.Errorf("Next(%s, %s) = (%q, %v), want (%q, %v)", from, op, to, ok, want, wantOK)
			}
			if ok && !to.Valid() {
				t.Errorf("Next(%s, %s) leads outside the vocabulary: %q", from, op, to)
			}
		}
	}
}

func TestNextRejectsUnknownStatus(t *testing.T) {
	if _, ok := Next(Status("ARCHIVED"), OpSubmit); ok {
		t.Fatalf("unknown status must have no edges")
	}
}

func TestAllowedOperations(t *testing.T) {
	got := Allowed(StatusPendingWithdrawal)
	want := []Operation{OpCancelWithdrawal, OpApproveWithdrawal, OpRejectWithdrawal}
	if len(got) != len(want) {
		t.Fatalf("Allowed = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allowed = %v, want %v", got, want)
		}
	}
	if ops := Allowed(StatusApproved); len(ops) != 0 {
		t.Fatalf("approved records are terminal, got %v", ops)
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"SUBMITTED":            StatusSubmitted,
		"submitted":            StatusSubmitted,
		" pending_withdrawal ": StatusPendingWithdrawal,
		"Pending-Withdrawal":   StatusPendingWithdrawal,
		"UNFILLED":             StatusUnfilled,
	}
	for raw, want := range cases {
		got, err := ParseStatus(raw)
		if err != nil {
			t.Errorf("ParseStatus(%q): %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %s, want %s", raw, got, want)
		}
	}

	for _, raw := range []string{"", "withdrawn", "0"} {
		if _, err := ParseStatus(raw); err == nil {
			t.Errorf("ParseStatus(%q) should fail", raw)
		}
	}
}

func TestParseDecision(t *testing.T) {
	if d, err := ParseDecision("Agree"); err != nil || d != DecisionApprove {
		t.Fatalf("agree -> %q, %v", d, err)
	}
	if d, err := ParseDecision("reject"); err != nil || d != DecisionReject {
		t.Fatalf("reject -> %q, %v", d, err)
	}
	if _, err := ParseDecision("later"); err == nil {
		t.Fatalf("expected error for unknown decision")
	}
}

func TestWithdrawalConfigValidate(t *testing.T) {
	ok := WithdrawalConfig{ModuleType: ModuleAudit, AllowedStatuses: []Status{StatusSubmitted}, MaxAttempts: 2}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := WithdrawalConfig{TimeLimitHours: -1, MaxAttempts: -2, AllowedStatuses: []Status{"LOST"}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("invalid config accepted")
	}
}

func TestWithdrawableDefaultsToSubmitted(t *testing.T) {
	cfg := WithdrawalConfig{ModuleType: ModulePredict}
	if !cfg.Withdrawable(StatusSubmitted) {
		t.Fatalf("empty allowed list should default to SUBMITTED")
	}
	if cfg.Withdrawable(StatusApproved) {
		t.Fatalf("APPROVED is not in the default set")
	}
}

func TestWithinWindow(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	submitted := now.Add(-2 * time.Hour)
	cfg := WithdrawalConfig{TimeLimitHours: 1}

	if cfg.WithinWindow(&submitted, now) {
		t.Fatalf("2h elapsed should be outside a 1h window")
	}
	if cfg.WithinWindow(nil, now) {
		t.Fatalf("unknown submission time must fail a limited window")
	}
	cfg.TimeLimitHours = 0
	if !cfg.WithinWindow(nil, now) {
		t.Fatalf("no limit means always inside the window")
	}
}

func TestParseStatusesFailsOnUnknown(t *testing.T) {
	if _, err := ParseStatuses([]string{"SUBMITTED", "bogus"}); err == nil {
		t.Fatalf("expected error")
	}
	got, err := ParseStatuses([]string{"submitted", "PENDING_WITHDRAWAL"})
	if err != nil {
		t.Fatalf("ParseStatuses: %v", err)
	}
	if names := StatusNames(got); names[0] != "SUBMITTED" || names[1] != "PENDING_WITHDRAWAL" {
		t.Fatalf("unexpected names %v", names)
	}
}
