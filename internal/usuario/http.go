package usuario

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/institutomariaclaro/doacoes/internal/http/middleware"
	"github.com/institutomariaclaro/doacoes/internal/util"
)

// Handler expõe endpoints REST de usuários.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	id, err := subjectAsID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar perfil", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"usuario": NewProfile(*user)})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter

	if raw := strings.TrimSpace(r.URL.Query().Get("tipoUsuario")); raw != "" {
		tipo, err := ParseTipoUsuario(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		filter.TipoUsuario = &tipo
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("tipoPessoa")); raw != "" {
		tipo, err := ParseTipoPessoa(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		filter.TipoPessoa = &tipo
	}
	filter.Busca = strings.TrimSpace(r.URL.Query().Get("busca"))

	usuarios, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar usuários", nil)
		return
	}

	profiles := make([]Profile, 0, len(usuarios))
	for _, u := range usuarios {
		profiles = append(profiles, NewProfile(u))
	}

	writeJSON(w, http.StatusOK, map[string]any{"usuarios": profiles})
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := paramAsID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if !podeVisualizar(r, id) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar usuário", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"usuario": NewProfile(*user)})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := paramAsID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if !podeEditar(r, id) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}

	var payload struct {
		Nome       string `json:"nome"`
		Email      string `json:"email"`
		TipoPessoa string `json:"tipoPessoa"`
		Documento  string `json:"documento"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	input := UpdateProfileInput{
		Nome:      strings.TrimSpace(payload.Nome),
		Email:     strings.TrimSpace(payload.Email),
		Documento: strings.TrimSpace(payload.Documento),
	}
	if raw := strings.TrimSpace(payload.TipoPessoa); raw != "" {
		tipo, err := ParseTipoPessoa(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		input.TipoPessoa = &tipo
	}

	user, err := h.service.UpdateProfile(r.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
		case errors.Is(err, ErrEmailEmUso):
			writeError(w, http.StatusConflict, "CONFLICT", "e-mail já cadastrado", nil)
		case errors.Is(err, util.ErrValidation):
			writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		default:
			log.Error().Err(err).Int64("usuario_id", id).Msg("falha ao atualizar usuário")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar usuário", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"usuario": NewProfile(*user)})
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := paramAsID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		TipoUsuario string `json:"tipoUsuario"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	tipo, err := ParseTipoUsuario(payload.TipoUsuario)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	if err := h.service.UpdateRole(r.Context(), id, tipo); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar papel", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "papel_atualizado"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := paramAsID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	// Administrador não remove a própria conta pela API.
	if subject, err := subjectAsID(r); err == nil && subject == id {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "não é possível remover a própria conta", nil)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível remover usuário", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// podeVisualizar autoriza o próprio usuário ou o backoffice.
func podeVisualizar(r *http.Request, id int64) bool {
	role := httpmiddleware.GetRole(r.Context())
	if strings.EqualFold(role, string(TipoAdministrador)) || strings.EqualFold(role, string(TipoColaborador)) {
		return true
	}
	subject, err := subjectAsID(r)
	return err == nil && subject == id
}

// podeEditar autoriza o próprio usuário ou um administrador.
func podeEditar(r *http.Request, id int64) bool {
	if strings.EqualFold(httpmiddleware.GetRole(r.Context()), string(TipoAdministrador)) {
		return true
	}
	subject, err := subjectAsID(r)
	return err == nil && subject == id
}

func subjectAsID(r *http.Request) (int64, error) {
	return strconv.ParseInt(httpmiddleware.GetSubject(r.Context()), 10, 64)
}

func paramAsID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any        `json:"data"`
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Data: nil,
		Error: &errorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
