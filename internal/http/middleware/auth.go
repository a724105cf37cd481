package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/institutomariaclaro/doacoes/internal/auth"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyNome    contextKey = "nome"
	ContextKeyRole    contextKey = "role"
)

// Auth valida JWT de acesso e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyNome, claims.Nome)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetNome recupera o nome do usuário autenticado.
func GetNome(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyNome).(string)
	return val
}

// GetRole recupera o papel do usuário autenticado.
func GetRole(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyRole).(string)
	return val
}

// Papéis aceitos nos guards. Os valores espelham a coluna tipo_usuario.
const (
	roleAdministrador = "Administrador"
	roleColaborador   = "Colaborador"
)

// RequireAdministrador restringe a rota a administradores.
func RequireAdministrador(next http.Handler) http.Handler {
	return requireRoles(next, roleAdministrador)
}

// RequireBackoffice restringe a rota a administradores e colaboradores.
func RequireBackoffice(next http.Handler) http.Handler {
	return requireRoles(next, roleAdministrador, roleColaborador)
}

func requireRoles(next http.Handler, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := GetRole(r.Context())
		for _, allowed := range roles {
			if strings.EqualFold(role, allowed) {
				next.ServeHTTP(w, r)
				return
			}
		}

		writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito")
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
