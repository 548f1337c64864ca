package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	auditsvc "bot_gatekeeper/internal/services/audit"
	"bot_gatekeeper/internal/transport/http/dto"
	httperrors "bot_gatekeeper/internal/transport/http/errors"
)

type AuditHandler struct {
	audit *auditsvc.Service
}

func NewAuditHandler(audit *auditsvc.Service) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{
				Code:    "INVALID_LIMIT",
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	records, err := h.audit.ListRecent(r.Context(), chatID, limit)
	if err != nil {
		httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{
			Code:    "AUDIT_LIST_FAILED",
			Message: "failed to list audit records",
		})
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AuditListResponse{Records: records})
}

func (h *AuditHandler) GetDestination(w http.ResponseWriter, r *http.Request) {
	chatID, ok := chatIDParam(w, r)
	if !ok {
		return
	}

	dest, configured, err := h.audit.Destination(r.Context(), chatID)
	if err != nil {
		httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{
			Code:    "DESTINATION_LOOKUP_FAILED",
			Message: "failed to resolve audit destination",
		})
		return
	}

	resp := dto.DestinationResponse{Configured: configured}
	if configured {
		resp.LogChatID = dest.LogChatID
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func chatIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "chatID")
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || chatID == 0 {
		httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{
			Code:    "INVALID_CHAT_ID",
			Message: "chat id must be a non-zero integer",
		})
		return 0, false
	}
	return chatID, true
}
