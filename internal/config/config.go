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
	Port           int
	DBDSN          string
	RedisURL       string
	JWTAccessTTL   time.Duration
	JWTRefreshTTL  time.Duration
	JWTSecret      string
	AllowOrigins   []string
	Location       *time.Location
	MetricsEnabled bool
	// TrustProxy liga a leitura de X-Real-IP/X-Forwarded-For; só vale atrás de proxy confiável.
	TrustProxy bool

	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	RateLimitLogin  RateLimitConfig

	Notificacoes NotificacoesConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// NotificacoesConfig controla a limpeza periódica de notificações antigas.
type NotificacoesConfig struct {
	CleanupEnabled  bool
	CleanupInterval time.Duration
	Retention       time.Duration
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
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

	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.JWTRefreshTTL, err = parseDurationEnv("JWT_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(getEnv("ALLOW_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		return nil, errors.New("APP_TIMEZONE inválido")
	}
	cfg.Location = loc

	if cfg.MetricsEnabled, err = parseBoolEnv("METRICS_ENABLED", true); err != nil {
		return nil, err
	}

	if cfg.TrustProxy, err = parseBoolEnv("TRUST_PROXY", false); err != nil {
		return nil, err
	}

	// 30 req/min anônimo por IP, 300 req/min autenticado, 5 tentativas de login a cada 15 min.
	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 0.5, Burst: 30}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 5, Burst: 300}
	cfg.RateLimitLogin = RateLimitConfig{RequestsPerSecond: 5.0 / (15 * 60), Burst: 5}

	if cfg.Notificacoes.CleanupEnabled, err = parseBoolEnv("NOTIFICACOES_LIMPEZA_ATIVA", true); err != nil {
		return nil, err
	}
	if cfg.Notificacoes.CleanupInterval, err = parseDurationEnv("NOTIFICACOES_LIMPEZA_INTERVALO", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Notificacoes.Retention, err = parseDurationEnv("NOTIFICACOES_RETENCAO", 7*24*time.Hour); err != nil {
		return nil, err
	}

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
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	val := strings.TrimSpace(getEnv(key, ""))
	if val == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, errors.New(key + " inválido")
	}
	return b, nil
}
