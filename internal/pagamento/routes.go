package pagamento

import "github.com/go-chi/chi/v5"

// RegisterWebhookRoutes registra a rota pública chamada pelo gateway. O caminho
// completo fica aqui porque o grupo autenticado já monta /pagamento no roteador.
func (h *Handler) RegisterWebhookRoutes(r chi.Router) {
	r.Post("/pagamento/webhook", h.webhook)
}

// RegisterRoutes registra as rotas de usuários autenticados.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/criar-preferencia", h.criarPreferencia)
	r.Get("/me", h.listMe)
}

// RegisterAdminRoutes registra as rotas exclusivas de administradores.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/anos-disponiveis", h.anosDisponiveis)
	r.Get("/relatorio-arrecadacao", h.relatorioArrecadacao)
	r.Get("/{userID}", h.listByDoador)
}
