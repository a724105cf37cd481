package usuario

import "github.com/go-chi/chi/v5"

// RegisterRoutes registra as rotas acessíveis a qualquer usuário autenticado.
// O acesso por id é restrito ao próprio usuário ou ao backoffice.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.getMe)
	r.Get("/{id}", h.getByID)
	r.Put("/{id}", h.update)
}

// RegisterBackofficeRoutes registra as rotas de administradores e colaboradores.
func (h *Handler) RegisterBackofficeRoutes(r chi.Router) {
	r.Get("/", h.list)
}

// RegisterAdminRoutes registra as rotas exclusivas de administradores.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/{id}/tipo", h.updateRole)
	r.Delete("/{id}", h.delete)
}
