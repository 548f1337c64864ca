package handlers

import (
	"net/http"

	exemptionsvc "bot_gatekeeper/internal/services/exemptions"
	"bot_gatekeeper/internal/transport/http/dto"
	httperrors "bot_gatekeeper/internal/transport/http/errors"
)

type ExemptionsHandler struct {
	exemptions *exemptionsvc.Service
}

func NewExemptionsHandler(exemptions *exemptionsvc.Service) *ExemptionsHandler {
	return &ExemptionsHandler{exemptions: exemptions}
}

func (h *ExemptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	entries, err := h.exemptions.List(r.Context(), chatID)
	if err != nil {
		httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{
			Code:    "EXEMPTION_LIST_FAILED",
			Message: "failed to list exemptions",
		})
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ExemptionListResponse{Exemptions: entries})
}
