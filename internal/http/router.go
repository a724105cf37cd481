package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/institutomariaclaro/doacoes/internal/auth"
	"github.com/institutomariaclaro/doacoes/internal/config"
	appmiddleware "github.com/institutomariaclaro/doacoes/internal/http/middleware"
	"github.com/institutomariaclaro/doacoes/internal/mailer"
	"github.com/institutomariaclaro/doacoes/internal/pagamento"
	"github.com/institutomariaclaro/doacoes/internal/usuario"
)

// NewRouter monta o roteador HTTP completo com todas as dependências já
// construídas. Grupos: público (health, auth, webhook), autenticado e
// administrativo.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, gateway pagamento.Gateway, m mailer.Mailer) http.Handler {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	usuarioService := usuario.NewService(usuario.NewRepository(pool))
	pagamentoService := pagamento.NewService(
		pagamento.NewRepository(pool),
		usuarioService,
		gateway,
		m,
		redisClient,
	)

	authHandler := NewAuthHandler(usuarioService, jwtManager)
	usuarioHandler := usuario.NewHandler(usuarioService)
	pagamentoHandler := pagamento.NewHandler(pagamentoService)

	publicLimiter := appmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)
	authLimiter := appmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(appmiddleware.Logging)
	r.Use(appmiddleware.Recover)
	r.Use(appmiddleware.CORS(cfg.AllowOrigins))

	// Rotas públicas com limite por IP.
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.IPRateLimit(publicLimiter))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
			if err := pool.Ping(req.Context()); err != nil {
				WriteError(w, http.StatusServiceUnavailable, CodeInternal, "banco indisponível", nil)
				return
			}
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Webhook do gateway não carrega token.
		pagamentoHandler.RegisterWebhookRoutes(r)
	})

	// Rotas autenticadas com limite por usuário.
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.Auth(jwtManager))
		r.Use(appmiddleware.UserRateLimit(authLimiter))

		r.Route("/usuarios", func(r chi.Router) {
			usuarioHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireBackoffice)
				usuarioHandler.RegisterBackofficeRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireAdministrador)
				usuarioHandler.RegisterAdminRoutes(r)
			})
		})

		r.Route("/pagamento", func(r chi.Router) {
			pagamentoHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireAdministrador)
				pagamentoHandler.RegisterAdminRoutes(r)
			})
		})
	})

	return r
}
