package enums

type Capability string

const (
	CapabilityBanMembers  Capability = "ban_members"
	CapabilityKickMembers Capability = "kick_members"
)
