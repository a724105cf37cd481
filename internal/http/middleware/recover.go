package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Recover captura panics de handlers e devolve 500 sem derrubar o servidor.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("path", r.URL.Path).
					Msg("panic recuperado")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
