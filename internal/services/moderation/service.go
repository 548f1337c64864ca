package moderation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bot_gatekeeper/internal/domain/enums"
	"bot_gatekeeper/internal/domain/model"
	"bot_gatekeeper/internal/domain/rules"
)

type ExemptionChecker interface {
	IsExempt(ctx context.Context, chatID, userID int64) (bool, error)
}

// Notifier delivers the courtesy message before the removal. Best effort.
type Notifier interface {
	NotifyRemoval(ctx context.Context, userID int64, chatTitle string, decision enums.Decision, reason string) error
}

// Remover carries out the removal. "Already absent" counts as success.
type Remover interface {
	RemoveMember(ctx context.Context, chatID, userID int64, decision enums.Decision, reason string) error
}

type Auditor interface {
	Emit(ctx context.Context, record model.AuditRecord) (bool, error)
}

type Deduper interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Result is the outcome of one processed join event. Collaborator
// failures surface here as flags, never as errors.
type Result struct {
	Decision        enums.Decision
	Notified        bool
	ActionSucceeded bool
	AuditEmitted    bool
	Duplicate       bool
}

type Service struct {
	thresholds  rules.Thresholds
	exemptions  ExemptionChecker
	notifier    Notifier
	remover     Remover
	auditor     Auditor
	deduper     Deduper
	stepTimeout time.Duration
	dedupeTTL   time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

func NewService(
	thresholds rules.Thresholds,
	exemptions ExemptionChecker,
	notifier Notifier,
	remover Remover,
	auditor Auditor,
	stepTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		thresholds:  thresholds,
		exemptions:  exemptions,
		notifier:    notifier,
		remover:     remover,
		auditor:     auditor,
		stepTimeout: stepTimeout,
		dedupeTTL:   30 * time.Second,
		now:         time.Now,
		logger:      logger,
	}
}

// AttachDeduper enables duplicate-delivery suppression for join events.
func (s *Service) AttachDeduper(deduper Deduper, ttl time.Duration) {
	s.deduper = deduper
	if ttl > 0 {
		s.dedupeTTL = ttl
	}
}

// HandleJoin evaluates one member join: exemption check, age
// classification, then notify, act and audit in that order. The removal
// must complete even when the courtesy or audit steps fail.
func (s *Service) HandleJoin(ctx context.Context, event model.JoinEvent) (Result, error) {
	if event.IsBot {
		return Result{Decision: enums.DecisionAllow, ActionSucceeded: true}, nil
	}

	exempt, err := s.isExempt(ctx, event)
	if err != nil {
		return Result{}, fmt.Errorf("check exemption: %w", err)
	}
	if exempt {
		return Result{Decision: enums.DecisionAllow, ActionSucceeded: true}, nil
	}

	now := s.now().UTC()
	ageDays := rules.AccountAgeDays(event.AccountCreatedAt, now)
	decision := rules.Classify(ageDays, s.thresholds)
	if !decision.RequiresAction() {
		return Result{Decision: enums.DecisionAllow, ActionSucceeded: true}, nil
	}

	if dup := s.isDuplicate(ctx, event); dup {
		s.logger.Debug("duplicate join delivery suppressed",
			zap.Int64("chat_id", event.ChatID),
			zap.Int64("user_id", event.UserID),
		)
		return Result{Decision: decision, ActionSucceeded: true, Duplicate: true}, nil
	}

	reason := removalReason(ageDays, decision, s.thresholds, event.AccountCreatedAt)
	result := Result{Decision: decision}

	result.Notified = s.notify(ctx, event, decision, reason)
	result.ActionSucceeded = s.act(ctx, event, decision, reason)
	result.AuditEmitted = s.emitAudit(ctx, event, decision, reason, result, now)

	return result, nil
}

func (s *Service) isExempt(ctx context.Context, event model.JoinEvent) (bool, error) {
	if s.exemptions == nil {
		return false, nil
	}
	return s.exemptions.IsExempt(ctx, event.ChatID, event.UserID)
}

func (s *Service) isDuplicate(ctx context.Context, event model.JoinEvent) bool {
	if s.deduper == nil {
		return false
	}

	key := fmt.Sprintf("join:%d:%d", event.ChatID, event.UserID)
	acquired, err := s.deduper.Acquire(ctx, key, s.dedupeTTL)
	if err != nil {
		// Dedupe is best effort; a broken redis must not stop moderation.
		s.logger.Warn("join dedupe unavailable",
			zap.Error(err),
			zap.Int64("chat_id", event.ChatID),
			zap.Int64("user_id", event.UserID),
		)
		return false
	}
	return !acquired
}

func (s *Service) notify(ctx context.Context, event model.JoinEvent, decision enums.Decision, reason string) bool {
	if s.notifier == nil {
		return false
	}

	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	if err := s.notifier.NotifyRemoval(stepCtx, event.UserID, event.ChatTitle, decision, reason); err != nil {
		s.logger.Debug("removal notification failed",
			zap.Error(err),
			zap.Int64("chat_id", event.ChatID),
			zap.Int64("user_id", event.UserID),
		)
		return false
	}
	return true
}

func (s *Service) act(ctx context.Context, event model.JoinEvent, decision enums.Decision, reason string) bool {
	if s.remover == nil {
		return false
	}

	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	if err := s.remover.RemoveMember(stepCtx, event.ChatID, event.UserID, decision, reason); err != nil {
		s.logger.Warn("removal action failed",
			zap.Error(err),
			zap.String("decision", string(decision)),
			zap.Int64("chat_id", event.ChatID),
			zap.Int64("user_id", event.UserID),
		)
		return false
	}
	return true
}

func (s *Service) emitAudit(ctx context.Context, event model.JoinEvent, decision enums.Decision, reason string, result Result, now time.Time) bool {
	if s.auditor == nil {
		return false
	}

	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()

	emitted, err := s.auditor.Emit(stepCtx, model.AuditRecord{
		ChatID:          event.ChatID,
		UserID:          event.UserID,
		Username:        event.Username,
		Decision:        decision,
		Reason:          reason,
		Notified:        result.Notified,
		ActionSucceeded: result.ActionSucceeded,
		CreatedAt:       now,
	})
	if err != nil {
		// An audit problem must never block or revert the decision.
		s.logger.Warn("audit emission failed",
			zap.Error(err),
			zap.Int64("chat_id", event.ChatID),
			zap.Int64("user_id", event.UserID),
		)
	}
	return emitted
}

func removalReason(ageDays int, decision enums.Decision, thresholds rules.Thresholds, createdAt time.Time) string {
	cutoff := thresholds.KickUnderDays
	if decision == enums.DecisionBan {
		cutoff = thresholds.BanUnderDays
	}
	return fmt.Sprintf("Account age %dd < %dd (created: %s UTC)",
		ageDays, cutoff, createdAt.UTC().Format("2006-01-02"))
}
