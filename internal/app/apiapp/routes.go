package apiapp

import (
	"github.com/go-chi/chi/v5"

	auditsvc "bot_gatekeeper/internal/services/audit"
	exemptionsvc "bot_gatekeeper/internal/services/exemptions"
	"bot_gatekeeper/internal/transport/http/handlers"
)

type Dependencies struct {
	AuditService     *auditsvc.Service
	ExemptionService *exemptionsvc.Service
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	auditHandler := handlers.NewAuditHandler(deps.AuditService)
	exemptionsHandler := handlers.NewExemptionsHandler(deps.ExemptionService)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/api/v1/chats/{chatID}", func(r chi.Router) {
		r.Get("/audit", auditHandler.ListRecent)
		r.Get("/destination", auditHandler.GetDestination)
		r.Get("/exemptions", exemptionsHandler.List)
	})
}
