package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	DBDSN           string
	RedisURL        string
	JWTSecret       string
	JWTAccessTTL    time.Duration
	AllowOrigins    []string
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	MercadoPago     MercadoPagoConfig
	SMTP            SMTPConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// MercadoPagoConfig agrupa credenciais e URLs do gateway de pagamento.
type MercadoPagoConfig struct {
	AccessToken     string
	NotificationURL string
	BackURLSuccess  string
	BackURLFailure  string
}

// SMTPConfig descreve o servidor de envio de e-mails. Opcional: quando Host
// está vazio o serviço usa o mailer noop.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// Enabled indica se há servidor SMTP configurado.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.FromAddress != ""
}

// Load carrega variáveis de ambiente e aplica defaults seguros. Credenciais
// obrigatórias ausentes derrubam o processo na subida, não por requisição.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	cfg.MercadoPago.AccessToken = strings.TrimSpace(getEnv("MP_ACCESS_TOKEN", ""))
	if cfg.MercadoPago.AccessToken == "" {
		return nil, errors.New("MP_ACCESS_TOKEN obrigatório")
	}
	cfg.MercadoPago.NotificationURL = strings.TrimSpace(getEnv("MP_WEBHOOK_URL", ""))
	cfg.MercadoPago.BackURLSuccess = getEnv("MP_BACK_URL_SUCCESS", "http://localhost:3000/doacao/sucesso")
	cfg.MercadoPago.BackURLFailure = getEnv("MP_BACK_URL_FAILURE", "http://localhost:3000/doacao/falha")

	cfg.SMTP.Host = strings.TrimSpace(getEnv("SMTP_HOST", ""))
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil || smtpPort <= 0 {
		return nil, errors.New("SMTP_PORT inválida")
	}
	cfg.SMTP.Port = smtpPort
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.SMTP.FromAddress = strings.TrimSpace(getEnv("SMTP_FROM_ADDRESS", ""))
	cfg.SMTP.FromName = getEnv("SMTP_FROM_NAME", "Instituto Maria Claro")

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
