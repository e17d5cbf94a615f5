package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config armazena todas as configurações do aplicativo GoEscrow.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr      string
	CacheTimeout   time.Duration
	ReportCacheTTL time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration
	AdminEmails  []string

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Regras de saldo
	SignupCredit    decimal.Decimal // Crédito inicial de todo perfil novo
	DepositCapRatio decimal.Decimal // Fração máxima do total devido que pode ser depositada
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout:   getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,
		ReportCacheTTL: getDurationEnv("REPORT_CACHE_TTL_SEC", 60) * time.Second,

		// 4. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,
		AdminEmails:  getListEnv("ADMIN_EMAILS"),

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Saldo
		SignupCredit:    getDecimalEnv("SIGNUP_CREDIT", "500.00"),
		DepositCapRatio: getDecimalEnv("DEPOSIT_CAP_RATIO", "0.25"),
	}

	return cfg
}

// LoadDatabaseURL lê apenas DATABASE_URL, usado pelo runner de migrations.
func LoadDatabaseURL() string {
	return mustGetEnv("DATABASE_URL")
}

// Validate verifica a consistência dos valores carregados.
func (c *Config) Validate() error {
	if c.DBTimeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT_SEC deve ser positivo")
	}
	if c.TokenExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY_MIN deve ser positivo")
	}
	if c.RateLimitMaxRequests <= 0 || c.RateLimitPeriod <= 0 {
		return fmt.Errorf("configuração de rate limit inválida")
	}
	if c.SignupCredit.IsNegative() {
		return fmt.Errorf("SIGNUP_CREDIT não pode ser negativo")
	}
	if !c.DepositCapRatio.IsPositive() || c.DepositCapRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("DEPOSIT_CAP_RATIO deve estar no intervalo (0, 1]")
	}
	return nil
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getDecimalEnv lê um valor monetário; defaultValue precisa ser um decimal válido.
func getDecimalEnv(key string, defaultValue string) decimal.Decimal {
	valueStr := getEnv(key, defaultValue)
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um decimal válido. Usando padrão (%s).", key, valueStr, defaultValue)
		return decimal.RequireFromString(defaultValue)
	}
	return value
}

// getListEnv lê uma lista separada por vírgulas, normalizada para minúsculas.
func getListEnv(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
