package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"bot_gatekeeper/internal/domain/enums"
	"bot_gatekeeper/internal/domain/model"
	"bot_gatekeeper/internal/domain/rules"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeExemptions struct {
	mu     sync.Mutex
	exempt map[int64]bool
	err    error
	calls  int
}

func (f *fakeExemptions) IsExempt(_ context.Context, _, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.exempt[userID], nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeNotifier) NotifyRemoval(_ context.Context, _ int64, _ string, _ enums.Decision, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

type fakeRemover struct {
	mu        sync.Mutex
	calls     int
	decisions []enums.Decision
	err       error
}

func (f *fakeRemover) RemoveMember(_ context.Context, _, _ int64, decision enums.Decision, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.decisions = append(f.decisions, decision)
	return f.err
}

type fakeAuditor struct {
	mu      sync.Mutex
	records []model.AuditRecord
	emitted bool
	err     error
}

func (f *fakeAuditor) Emit(_ context.Context, record model.AuditRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return f.emitted, f.err
}

type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (f *fakeDeduper) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func joinEvent(userID int64, ageDays int) model.JoinEvent {
	return model.JoinEvent{
		ChatID:           1,
		ChatTitle:        "Test Chat",
		UserID:           userID,
		Username:         "someone",
		AccountCreatedAt: testNow.AddDate(0, 0, -ageDays),
		JoinedAt:         testNow,
	}
}

func newTestService(exemptions *fakeExemptions, notifier *fakeNotifier, remover *fakeRemover, auditor *fakeAuditor) *Service {
	svc := NewService(
		rules.Thresholds{BanUnderDays: 7, KickUnderDays: 30},
		exemptions,
		notifier,
		remover,
		auditor,
		time.Second,
		zap.NewNop(),
	)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestHandleJoinBansYoungAccount(t *testing.T) {
	notifier := &fakeNotifier{}
	remover := &fakeRemover{}
	auditor := &fakeAuditor{emitted: true}
	svc := newTestService(&fakeExemptions{}, notifier, remover, auditor)

	result, err := svc.HandleJoin(context.Background(), joinEvent(10, 3))
	if err != nil {
		t.Fatalf("handle join: %v", err)
	}

	if result.Decision != enums.DecisionBan {
		t.Fatalf("expected ban, got %s", result.Decision)
	}
	if !result.Notified || !result.ActionSucceeded || !result.AuditEmitted {
		t.Fatalf("unexpected flags: %+v", result)
	}
	if remover.calls != 1 || remover.decisions[0] != enums.DecisionBan {
		t.Fatalf("unexpected remover calls: %+v", remover.decisions)
	}
	if len(auditor.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(auditor.records))
	}
	record := auditor.records[0]
	if record.Decision != enums.DecisionBan || !record.ActionSucceeded || !record.Notified {
		t.Fatalf("unexpected audit record: %+v", record)
	}
	if record.Reason != "Account age 3d < 7d (created: 2026-03-07 UTC)" {
		t.Fatalf("unexpected reason: %q", record.Reason)
	}
}

func TestHandleJoinKicksMidAgeAccount(t *testing.T) {
	remover := &fakeRemover{}
	svc := newTestService(&fakeExemptions{}, &fakeNotifier{}, remover, &fakeAuditor{})

	result, err := svc.HandleJoin(context.Background(), joinEvent(10, 15))
	if err != nil {
		t.Fatalf("handle join: %v", err)
	}

	if result.Decision != enums.DecisionKick {
		t.Fatalf("expected kick, got %s", result.Decision)
	}
	if remover.calls != 1 || remover.decisions[0] != enums.DecisionKick {
		t.Fatalf("unexpected remover calls: %+v", remover.decisions)
	}
}

func TestHandleJoinAllowsOldAccountWithoutSideEffects(t *testing.T) {
	notifier := &fakeNotifier{}
	remover := &fakeRemover{}
	auditor := &fakeAuditor{}
	svc := newTestService(&fakeExemptions{}, notifier, remover, auditor)

	result, err := svc.HandleJoin(context.Background(), joinEvent(10, 40))
	if err != nil {
		t.Fatalf("handle join: %v", err)
	}

	if result.Decision != enums.DecisionAllow || !result.ActionSucceeded || result.Notified {
		t.Fatalf("unexpected result: %+v", result)
	}
	if notifier.calls != 0 || remover.calls != 0 || len(auditor.records) != 0 {
		t.Fatal("expected no side effects for allowed member")
	}
}

func TestHandleJoinExemptOverridesAge(t *testing.T) {
	notifier := &fakeNotifier{}
	remover := &fakeRemover{}
	auditor := &fakeAuditor{}
	exemptions := &fakeExemptions{exempt: map[int64]bool{10: true}}
	svc := newTestService(exemptions, notifier, remover, auditor)

	result, err := svc.HandleJoin(context.Background(), joinEvent(10, 3))
	if err != nil {
		t.Fatalf("handle join: %v", err)
	}

	if result.Decision != enums.DecisionAllow || !result.ActionSucceeded {
		t.Fatalf("unexpected result for exempt member: %+v", result)
	}
	if notifier.calls != 0 || remover.calls != 0 || len(auditor.records) != 0 {
		t.Fatal("expected no side effects for exempt member")
	}
}

func TestHandleJoinSkipsBots(t *testing.T) {
	exemptions := &fakeExemptions{}
	remover := &fakeRemover{}
	svc := newTestService(exemptions, &fakeNotifier{}, remover, &fakeAuditor{})

	event := joinEvent(10, 1)
	event.IsBot = true

	result, err := svc.HandleJoin(context.Background(), event)
	if err != nil {
		t.Fatalf("handle join: %v", err)
	}

	if result.Decision != enums.DecisionAllow {
		t.Fatalf("expected allow for bot, got %s", result.Decision)
	}
	if exemptions.calls != 0 || remover.calls != 0 {
		t.Fatal("expected no store or action calls for bot join")
	}
}

func TestHandleJoinNotifierFailureDoesNotBlockAction(t *testing.T) {
	remover := &fakeRemover{}
	auditor := &fakeAuditor{emitted: true}
	notifier := &fakeNotifier{err: errors.New("dms closed")}
	svc := newTestService(&fakeExemptions{}, notifier, remover, auditor)

	result, err := svc.HandleJoin(context.Background(), joinEvent(10, 3))
	if err != nil {
		t.Fatalf("handle join: %v", err)
	}

	if result.Notified {
		t.Fatal("expected notified=false on notifier failure")
	}
	if !result.ActionSucceeded || remover.calls != 1 {
		t.Fatal("expected removal to proceed despite notifier failure")
	}
	if len(auditor.records) != 1 || auditor.records[0].Notified {
		t.Fatalf("expected audit record with notified=false, got %+v", auditor.records)
	}
}

func TestHandleJoinActionFailureIsReportedNotRaised(t *testing.T) {
	remover := &fakeRemover{err: errors.New("insufficient rights")}
	auditor := &fakeAuditor{emitted: true}
	svc := newTestService(&fakeExemptions{}, &fakeNotifier{}, remover, auditor)

	result, err := svc.HandleJoin(context.Background(), joinEvent(10, 3))
	if err != nil {
		t.Fatalf("action failure must not raise: %v", err)
	}

	if result.ActionSucceeded {
		t.Fatal("expected action_succeeded=false")
	}
	if len(auditor.records) != 1 || auditor.records[0].ActionSucceeded {
		t.Fatalf("expected audit record with action_succeeded=false, got %+v", auditor.records)
	}
}

func TestHandleJoinAuditFailureDoesNotEscalate(t *testing.T) {
	auditor := &fakeAuditor{err: errors.New("log chat unreachable")}
	svc := newTestService(&fakeExemptions{}, &fakeNotifier{}, &fakeRemover{}, auditor)

	result, err := svc.HandleJoin(context.Background(), joinEvent(10, 3))
	if err != nil {
		t.Fatalf("audit failure must not raise: %v", err)
	}

	if result.AuditEmitted {
		t.Fatal("expected audit_emitted=false")
	}
	if !result.ActionSucceeded {
		t.Fatal("expected action to stand despite audit failure")
	}
}

func TestHandleJoinExemptionLookupErrorAborts(t *testing.T) {
	remover := &fakeRemover{}
	exemptions := &fakeExemptions{err: errors.New("db down")}
	svc := newTestService(exemptions, &fakeNotifier{}, remover, &fakeAuditor{})

	if _, err := svc.HandleJoin(context.Background(), joinEvent(10, 3)); err == nil {
		t.Fatal("expected error when exemption lookup fails")
	}
	if remover.calls != 0 {
		t.Fatal("expected no action when exemption state is unknown")
	}
}

func TestHandleJoinSuppressesDuplicateDelivery(t *testing.T) {
	remover := &fakeRemover{}
	auditor := &fakeAuditor{emitted: true}
	svc := newTestService(&fakeExemptions{}, &fakeNotifier{}, remover, auditor)
	svc.AttachDeduper(&fakeDeduper{}, time.Minute)

	ctx := context.Background()
	event := joinEvent(10, 3)

	first, err := svc.HandleJoin(ctx, event)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if first.Duplicate {
		t.Fatal("first delivery must not be a duplicate")
	}

	second, err := svc.HandleJoin(ctx, event)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("expected second delivery to be suppressed")
	}
	if second.Decision != first.Decision {
		t.Fatalf("duplicate diverged: %s vs %s", second.Decision, first.Decision)
	}
	if remover.calls != 1 {
		t.Fatalf("expected one removal, got %d", remover.calls)
	}
	if len(auditor.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(auditor.records))
	}
}

func TestHandleJoinDedupeOutageIsBestEffort(t *testing.T) {
	remover := &fakeRemover{}
	svc := newTestService(&fakeExemptions{}, &fakeNotifier{}, remover, &fakeAuditor{})
	svc.AttachDeduper(&fakeDeduper{err: errors.New("redis down")}, time.Minute)

	result, err := svc.HandleJoin(context.Background(), joinEvent(10, 3))
	if err != nil {
		t.Fatalf("handle join: %v", err)
	}
	if result.Duplicate {
		t.Fatal("dedupe outage must not mark events duplicate")
	}
	if remover.calls != 1 {
		t.Fatal("expected removal to proceed when dedupe is down")
	}
}

func TestHandleJoinConcurrentDistinctMembers(t *testing.T) {
	exemptions := &fakeExemptions{}
	notifier := &fakeNotifier{}
	remover := &fakeRemover{}
	auditor := &fakeAuditor{emitted: true}
	svc := newTestService(exemptions, notifier, remover, auditor)
	svc.AttachDeduper(&fakeDeduper{}, time.Minute)

	var wg sync.WaitGroup
	for i := int64(1); i <= 8; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			if _, err := svc.HandleJoin(context.Background(), joinEvent(userID, 3)); err != nil {
				t.Errorf("handle join %d: %v", userID, err)
			}
		}(i)
	}
	wg.Wait()

	if exemptions.calls != 8 || notifier.calls != 8 {
		t.Fatalf("expected 8 lookups and 8 notifications, got %d and %d", exemptions.calls, notifier.calls)
	}
	if remover.calls != 8 {
		t.Fatalf("expected 8 removals, got %d", remover.calls)
	}
	if len(auditor.records) != 8 {
		t.Fatalf("expected 8 audit records, got %d", len(auditor.records))
	}
}
