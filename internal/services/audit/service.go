package audit

import (
	"context"
	"fmt"
	"time"

	"bot_gatekeeper/internal/domain/model"
)

type DestinationsRepo interface {
	Set(ctx context.Context, chatID, logChatID, updatedByTGID int64) error
	Get(ctx context.Context, chatID int64) (model.LogDestination, bool, error)
}

type LogRepo interface {
	Save(ctx context.Context, record model.AuditRecord) error
	ListRecent(ctx context.Context, chatID int64, limit int) ([]model.AuditRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sink delivers a rendered audit record to the configured destination chat.
type Sink interface {
	SendAudit(ctx context.Context, logChatID int64, record model.AuditRecord) error
}

type Service struct {
	destinations     DestinationsRepo
	log              LogRepo
	sink             Sink
	defaultLogChatID int64
}

func NewService(destinations DestinationsRepo, log LogRepo, sink Sink, defaultLogChatID int64) *Service {
	return &Service{
		destinations:     destinations,
		log:              log,
		sink:             sink,
		defaultLogChatID: defaultLogChatID,
	}
}

func (s *Service) SetDestination(ctx context.Context, chatID, logChatID, updatedByTGID int64) error {
	if s.destinations == nil {
		return fmt.Errorf("destinations repo is not configured")
	}
	return s.destinations.Set(ctx, chatID, logChatID, updatedByTGID)
}

// Destination resolves the chat's audit destination. A chat without its
// own row falls back to the process-wide default, if any.
func (s *Service) Destination(ctx context.Context, chatID int64) (model.LogDestination, bool, error) {
	if s.destinations != nil {
		dest, ok, err := s.destinations.Get(ctx, chatID)
		if err != nil {
			return model.LogDestination{}, false, err
		}
		if ok {
			return dest, true, nil
		}
	}

	if s.defaultLogChatID != 0 {
		return model.LogDestination{ChatID: chatID, LogChatID: s.defaultLogChatID}, true, nil
	}

	return model.LogDestination{}, false, nil
}

// Emit persists the record and, when a destination is configured, sends
// it there. The returned flag reports destination delivery only; any
// failure is returned for logging but must not block the caller.
func (s *Service) Emit(ctx context.Context, record model.AuditRecord) (bool, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	var saveErr error
	if s.log != nil {
		if err := s.log.Save(ctx, record); err != nil {
			saveErr = fmt.Errorf("save audit record: %w", err)
		}
	}

	dest, ok, err := s.Destination(ctx, record.ChatID)
	if err != nil {
		return false, fmt.Errorf("resolve audit destination: %w", err)
	}
	if !ok || s.sink == nil {
		return false, saveErr
	}

	if err := s.sink.SendAudit(ctx, dest.LogChatID, record); err != nil {
		return false, fmt.Errorf("send audit record: %w", err)
	}

	return true, saveErr
}

func (s *Service) ListRecent(ctx context.Context, chatID int64, limit int) ([]model.AuditRecord, error) {
	if s.log == nil {
		return []model.AuditRecord{}, nil
	}
	return s.log.ListRecent(ctx, chatID, limit)
}

func (s *Service) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.log == nil {
		return 0, nil
	}
	return s.log.DeleteOlderThan(ctx, cutoff)
}
