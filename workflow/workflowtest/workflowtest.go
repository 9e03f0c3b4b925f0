// Package workflowtest provides in-memory collaborators for exercising the
// workflow engine without a database.
package workflowtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"fund-planning-api/workflow"
)

// RecordStore keeps records in a map and enforces the versioned update
// contract.
type RecordStore struct {
	mu      sync.Mutex
	records map[int]workflow.Record
	updates int
}

// NewRecordStore seeds a store with the given records.
func NewRecordStore(records ...workflow.Record) *RecordStore {
	s := &RecordStore{records: make(map[int]workflow.Record)}
	for _, rec := range records {
		s.Put(rec)
	}
	return s
}

// Put stores rec as is.
func (s *RecordStore) Put(rec workflow.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
}

// Snapshot returns the stored copy of a record.
func (s *RecordStore) Snapshot(id int) (workflow.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return cloneRecord(rec), ok
}

// Updates counts committed writes.
func (s *RecordStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

func (s *RecordStore) FindByID(ctx context.Context, id int) (*workflow.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, workflow.NotFoundError("record", id)
	}
	out := cloneRecord(rec)
	return &out, nil
}

func (s *RecordStore) Update(ctx context.Context, rec *workflow.Record, expectedVersion int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[rec.ID]
	if !ok {
		return workflow.NotFoundError("record", rec.ID)
	}
	if current.Version != expectedVersion {
		return workflow.ConflictError(rec.ID, expectedVersion)
	}
	rec.Version = expectedVersion + 1
	s.records[rec.ID] = cloneRecord(*rec)
	s.updates++
	return nil
}

func cloneRecord(rec workflow.Record) workflow.Record {
	if rec.SubmittedAt != nil {
		at := *rec.SubmittedAt
		rec.SubmittedAt = &at
	}
	return rec
}

// PolicyStore serves configs from a map.
type PolicyStore struct {
	mu      sync.Mutex
	configs map[string]workflow.WithdrawalConfig
}

// NewPolicyStore seeds the store.
func NewPolicyStore(configs ...workflow.WithdrawalConfig) *PolicyStore {
	p := &PolicyStore{configs: make(map[string]workflow.WithdrawalConfig)}
	for _, cfg := range configs {
		p.Set(cfg)
	}
	return p
}

// Set replaces the config of cfg.ModuleType.
func (p *PolicyStore) Set(cfg workflow.WithdrawalConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configs[cfg.ModuleType] = cfg
}

func (p *PolicyStore) GetConfig(ctx context.Context, moduleType string) (*workflow.WithdrawalConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.configs[moduleType]
	if !ok {
		return nil, workflow.NotFoundError("withdrawal config", moduleType)
	}
	return &cfg, nil
}

// Gate answers permission checks with a function. The zero value allows
// everything.
type Gate struct {
	Allow func(actor *workflow.Actor, perm workflow.Permission) bool
	Err   error
}

func (g Gate) CheckPermission(_ context.Context, actor *workflow.Actor, perm workflow.Permission) (bool, error) {
	if g.Err != nil {
		return false, g.Err
	}
	if g.Allow == nil {
		return true, nil
	}
	return g.Allow(actor, perm), nil
}

// DenyActions builds a gate that refuses the listed actions.
func DenyActions(actions ...string) Gate {
	denied := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		denied[a] = struct{}{}
	}
	return Gate{Allow: func(_ *workflow.Actor, perm workflow.Permission) bool {
		_, blocked := denied[perm.Action]
		return !blocked
	}}
}

// ErrAuditUnavailable is returned by a failing AuditLog.
var ErrAuditUnavailable = errors.New("audit store unavailable")

// AuditLog collects entries in memory.
type AuditLog struct {
	mu      sync.Mutex
	entries []workflow.AuditEntry
	fail    bool
}

// FailWrites makes subsequent Record calls fail.
func (a *AuditLog) FailWrites(fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail = fail
}

func (a *AuditLog) Record(_ context.Context, entry workflow.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return ErrAuditUnavailable
	}
	a.entries = append(a.entries, entry)
	return nil
}

// Entries returns a copy of what was recorded.
func (a *AuditLog) Entries() []workflow.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]workflow.AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
