package model

import "time"

// JoinEvent is a single observed member join. It is produced by the
// transport, consumed once by the moderation service and never persisted.
type JoinEvent struct {
	ChatID           int64
	ChatTitle        string
	UserID           int64
	Username         string
	IsBot            bool
	AccountCreatedAt time.Time
	JoinedAt         time.Time
}
