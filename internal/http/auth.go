package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/institutomariaclaro/doacoes/internal/auth"
	"github.com/institutomariaclaro/doacoes/internal/usuario"
	"github.com/institutomariaclaro/doacoes/internal/util"
)

// AuthHandler concentra cadastro e login.
type AuthHandler struct {
	usuarios *usuario.Service
	jwt      *auth.JWTManager
}

func NewAuthHandler(usuarios *usuario.Service, jwt *auth.JWTManager) *AuthHandler {
	return &AuthHandler{usuarios: usuarios, jwt: jwt}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome       string `json:"nome"`
		Email      string `json:"email"`
		Senha      string `json:"senha"`
		TipoPessoa string `json:"tipoPessoa"`
		Documento  string `json:"documento"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "payload inválido", nil)
		return
	}

	input := usuario.RegisterInput{
		Nome:      strings.TrimSpace(payload.Nome),
		Email:     strings.TrimSpace(payload.Email),
		Senha:     payload.Senha,
		Documento: strings.TrimSpace(payload.Documento),
	}
	if raw := strings.TrimSpace(payload.TipoPessoa); raw != "" {
		tipo, err := usuario.ParseTipoPessoa(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
			return
		}
		input.TipoPessoa = &tipo
	}

	user, err := h.usuarios.Register(r.Context(), input)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"usuario": usuario.NewProfile(*user)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "payload inválido", nil)
		return
	}

	user, err := h.usuarios.VerifyCredentials(r.Context(), strings.TrimSpace(payload.Email), payload.Senha)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	token, _, err := h.jwt.GenerateAccessToken(strconv.FormatInt(user.ID, 10), user.Nome, string(user.TipoUsuario))
	if err != nil {
		log.Error().Err(err).Int64("usuario_id", user.ID).Msg("falha ao assinar token")
		WriteError(w, http.StatusInternalServerError, CodeInternal, "não foi possível autenticar", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"usuario":      usuario.NewProfile(*user),
	})
}

// handleAuthError expõe a mensagem só quando o erro é de validação ou de
// credencial. Qualquer outra falha vai para o log e vira resposta genérica.
func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usuario.ErrCredenciaisInvalidas):
		WriteError(w, http.StatusUnauthorized, CodeAuth, "credenciais inválidas", nil)
	case errors.Is(err, usuario.ErrEmailEmUso):
		WriteError(w, http.StatusConflict, CodeConflict, "e-mail já cadastrado", nil)
	case errors.Is(err, util.ErrValidation):
		WriteError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	default:
		log.Error().Err(err).Msg("falha inesperada no fluxo de auth")
		WriteError(w, http.StatusInternalServerError, CodeInternal, "erro interno", nil)
	}
}
