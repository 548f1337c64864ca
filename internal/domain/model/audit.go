package model

import (
	"time"

	"bot_gatekeeper/internal/domain/enums"
)

// AuditRecord is the write-only outcome of one moderated join.
type AuditRecord struct {
	ID              int64          `json:"id"`
	ChatID          int64          `json:"chat_id"`
	UserID          int64          `json:"user_id"`
	Username        string         `json:"username"`
	Decision        enums.Decision `json:"decision"`
	Reason          string         `json:"reason"`
	Notified        bool           `json:"notified"`
	ActionSucceeded bool           `json:"action_succeeded"`
	CreatedAt       time.Time      `json:"created_at"`
}

// LogDestination maps a chat to the single chat its audit records are
// sent to. At most one destination per chat, last write wins.
type LogDestination struct {
	ChatID        int64     `json:"chat_id"`
	LogChatID     int64     `json:"log_chat_id"`
	UpdatedByTGID int64     `json:"updated_by_tg_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}
