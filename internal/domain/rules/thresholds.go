package rules

import (
	"fmt"
	"time"

	"bot_gatekeeper/internal/domain/enums"
)

// Thresholds are the process-wide account-age cutoffs, loaded once at
// startup and immutable afterwards.
type Thresholds struct {
	BanUnderDays  int
	KickUnderDays int
}

func (t Thresholds) Validate() error {
	if t.BanUnderDays < 0 {
		return fmt.Errorf("ban_under_days must be non-negative, got %d", t.BanUnderDays)
	}
	if t.KickUnderDays < 0 {
		return fmt.Errorf("kick_under_days must be non-negative, got %d", t.KickUnderDays)
	}
	return nil
}

// Inverted reports the unexpected configuration shape where the kick
// cutoff is below the ban cutoff. Classify keeps its literal check order
// either way; callers log this at startup.
func (t Thresholds) Inverted() bool {
	return t.KickUnderDays < t.BanUnderDays
}

// Classify maps an account age to a decision. The ban check runs first,
// then the kick check, first match wins.
func Classify(accountAgeDays int, t Thresholds) enums.Decision {
	if accountAgeDays < 0 {
		accountAgeDays = 0
	}
	if accountAgeDays < t.BanUnderDays {
		return enums.DecisionBan
	}
	if accountAgeDays < t.KickUnderDays {
		return enums.DecisionKick
	}
	return enums.DecisionAllow
}

// AccountAgeDays floors the age to whole days. Ages in the future
// (clock skew) clamp to zero.
func AccountAgeDays(createdAt, now time.Time) int {
	if createdAt.IsZero() || !createdAt.Before(now) {
		return 0
	}
	return int(now.Sub(createdAt) / (24 * time.Hour))
}
