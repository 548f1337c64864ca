package access

import (
	"testing"

	"bot_gatekeeper/internal/domain/enums"
)

func TestAuthorize(t *testing.T) {
	svc := NewService(0)

	tests := []struct {
		name     string
		granted  []enums.Capability
		required enums.Capability
		want     bool
	}{
		{
			name:     "capability present",
			granted:  []enums.Capability{enums.CapabilityBanMembers},
			required: enums.CapabilityBanMembers,
			want:     true,
		},
		{
			name:     "capability absent",
			granted:  []enums.Capability{enums.CapabilityKickMembers},
			required: enums.CapabilityBanMembers,
			want:     false,
		},
		{
			name:     "empty set",
			granted:  nil,
			required: enums.CapabilityKickMembers,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Authorize(42, tt.granted, tt.required)
			if got != tt.want {
				t.Fatalf("unexpected authorize result: got %v want %v", got, tt.want)
			}
		})
	}
}

func TestOwnerBypassesCapabilityCheck(t *testing.T) {
	svc := NewService(100)

	if !svc.Authorize(100, nil, enums.CapabilityBanMembers) {
		t.Fatal("expected owner to be authorized without capabilities")
	}
	if svc.Authorize(101, nil, enums.CapabilityBanMembers) {
		t.Fatal("expected non-owner without capabilities to be denied")
	}
}

func TestCanCurateEitherCapabilitySuffices(t *testing.T) {
	svc := NewService(0)

	if !svc.CanCurate(42, []enums.Capability{enums.CapabilityBanMembers}) {
		t.Fatal("expected ban capability to allow curation")
	}
	if !svc.CanCurate(42, []enums.Capability{enums.CapabilityKickMembers}) {
		t.Fatal("expected kick capability to allow curation")
	}
	if svc.CanCurate(42, nil) {
		t.Fatal("expected no capabilities to deny curation")
	}
}
