package dto

import "bot_gatekeeper/internal/domain/model"

type HealthResponse struct {
	Status string `json:"status"`
}

type AuditListResponse struct {
	Records []model.AuditRecord `json:"records"`
}

type ExemptionListResponse struct {
	Exemptions []model.Exemption `json:"exemptions"`
}

type DestinationResponse struct {
	Configured bool  `json:"configured"`
	LogChatID  int64 `json:"log_chat_id,omitempty"`
}
