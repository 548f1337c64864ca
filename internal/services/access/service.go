package access

import (
	"bot_gatekeeper/internal/domain/enums"
)

// Service is the authorization gate for store mutations. It holds no
// state beyond the owner override and never touches network or storage;
// capabilities are resolved by the command layer and passed in.
type Service struct {
	ownerTGID int64
}

func NewService(ownerTGID int64) *Service {
	return &Service{ownerTGID: ownerTGID}
}

// Authorize reports whether the granted capability set contains the
// required one. The configured owner passes regardless.
func (s *Service) Authorize(actorTGID int64, granted []enums.Capability, required enums.Capability) bool {
	if s.ownerTGID != 0 && actorTGID == s.ownerTGID {
		return true
	}
	for _, capability := range granted {
		if capability == required {
			return true
		}
	}
	return false
}

// CanCurate reports whether the actor may mutate the exemption list or
// the audit destination. Either moderation capability suffices.
func (s *Service) CanCurate(actorTGID int64, granted []enums.Capability) bool {
	return s.Authorize(actorTGID, granted, enums.CapabilityBanMembers) ||
		s.Authorize(actorTGID, granted, enums.CapabilityKickMembers)
}
