package model

import "time"

type Exemption struct {
	ChatID      int64     `json:"chat_id"`
	UserID      int64     `json:"user_id"`
	AddedByTGID int64     `json:"added_by_tg_id"`
	AddedAt     time.Time `json:"added_at"`
}
