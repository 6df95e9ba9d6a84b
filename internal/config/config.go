// Пакет config — загрузка и валидация конфигурации travel-module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// ServiceName — имя сервиса в логах, health и метриках зависимостей.
const ServiceName = "travel-module"

// Config содержит все параметры конфигурации travel-module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Валидация запросов по встроенной OpenAPI-спецификации
	OpenAPIValidation bool

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимум соединений в пуле (0 — значение pgxpool по умолчанию)
	DBMaxConns int

	// --- Keycloak ---

	// URL Keycloak (без trailing slash)
	KeycloakURL string
	// Имя realm
	KeycloakRealm string
	// Client ID для Keycloak Admin API (Client Credentials)
	KeycloakClientID string
	// Client Secret для Keycloak Admin API
	KeycloakClientSecret string
	// Путь к CA-сертификату Keycloak (опционально)
	KeycloakCACertPath string

	// --- JWT ---

	// Issuer JWT (авто-вычисляется из KeycloakURL, если не задан)
	JWTIssuer string
	// URL JWKS endpoint (авто-вычисляется из KeycloakURL, если не задан)
	JWTJWKSURL string
	// Допустимое отклонение часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Интервал фонового обновления JWKS
	JWKSRefreshInterval time.Duration
	// Таймаут HTTP-клиента JWKS и readiness-проверки Keycloak
	JWKSClientTimeout time.Duration

	// --- Синхронизация пользователей ---

	// Размер LRU-кэша синхронизированных пользователей (0 — кэш отключён)
	SyncCacheSize int
	// Время жизни записи кэша
	SyncCacheTTL time.Duration

	// --- Согласование и доступ ---

	// Строгий режим: шаг согласования не по порядку — ошибка STATE_CONFLICT
	WorkflowStrict bool
	// Роли, которым доступны операции согласования
	ValidationRoles []rbac.Role
	// Роли, которым доступно изменение проектов
	ProjectWriteRoles []rbac.Role
	// Роли, которым доступны выставление и удаление счетов
	InvoiceRoles []rbac.Role
	// Роли администрирования пользователей
	UserAdminRoles []rbac.Role
	// Валюта счетов
	InvoiceCurrency string

	// --- topologymetrics ---

	// Группа сервиса в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// TM_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("TM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("TM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("TM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// TM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("TM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("TM_LOG_LEVEL: %w", err)
	}

	// TM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("TM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("TM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// TM_OPENAPI_VALIDATION — проверка запросов по OpenAPI (по умолчанию false)
	cfg.OpenAPIValidation, err = getEnvBool("TM_OPENAPI_VALIDATION", false)
	if err != nil {
		return nil, fmt.Errorf("TM_OPENAPI_VALIDATION: %w", err)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = getEnvRequired("TM_DB_HOST"); err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("TM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("TM_DB_PORT: %w", err)
	}

	if cfg.DBName, err = getEnvRequired("TM_DB_NAME"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = getEnvRequired("TM_DB_USER"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = getEnvRequired("TM_DB_PASSWORD"); err != nil {
		return nil, err
	}

	// TM_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("TM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("TM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// TM_DB_MAX_CONNS — размер пула соединений (по умолчанию 10)
	cfg.DBMaxConns, err = getEnvInt("TM_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("TM_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 0 || cfg.DBMaxConns > 1000 {
		return nil, fmt.Errorf("TM_DB_MAX_CONNS: значение %d вне допустимого диапазона 0-1000", cfg.DBMaxConns)
	}

	// --- Keycloak ---

	if cfg.KeycloakURL, err = getEnvRequired("TM_KEYCLOAK_URL"); err != nil {
		return nil, err
	}
	cfg.KeycloakURL = strings.TrimRight(cfg.KeycloakURL, "/")

	// TM_KEYCLOAK_REALM — realm (по умолчанию stage)
	cfg.KeycloakRealm = getEnvDefault("TM_KEYCLOAK_REALM", "stage")

	if cfg.KeycloakClientID, err = getEnvRequired("TM_KEYCLOAK_CLIENT_ID"); err != nil {
		return nil, err
	}
	if cfg.KeycloakClientSecret, err = getEnvRequired("TM_KEYCLOAK_CLIENT_SECRET"); err != nil {
		return nil, err
	}

	cfg.KeycloakCACertPath = getEnvDefault("TM_KEYCLOAK_CA_CERT_PATH", "")

	// --- JWT ---

	cfg.JWTIssuer = getEnvDefault("TM_JWT_ISSUER",
		fmt.Sprintf("%s/realms/%s", cfg.KeycloakURL, cfg.KeycloakRealm))

	cfg.JWTJWKSURL = getEnvDefault("TM_JWT_JWKS_URL",
		fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", cfg.KeycloakURL, cfg.KeycloakRealm))

	if cfg.JWTLeeway, err = getEnvDuration("TM_JWT_LEEWAY", 5*time.Second); err != nil {
		return nil, fmt.Errorf("TM_JWT_LEEWAY: %w", err)
	}
	if cfg.JWKSRefreshInterval, err = getEnvDuration("TM_JWKS_REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, fmt.Errorf("TM_JWKS_REFRESH_INTERVAL: %w", err)
	}
	if cfg.JWKSClientTimeout, err = getEnvDuration("TM_JWKS_CLIENT_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("TM_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	// --- Синхронизация пользователей ---

	// TM_SYNC_CACHE_SIZE — размер кэша (по умолчанию 1024, 0 — отключён)
	cfg.SyncCacheSize, err = getEnvInt("TM_SYNC_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("TM_SYNC_CACHE_SIZE: %w", err)
	}
	if cfg.SyncCacheSize < 0 {
		return nil, fmt.Errorf("TM_SYNC_CACHE_SIZE: значение %d не может быть отрицательным", cfg.SyncCacheSize)
	}
	if cfg.SyncCacheTTL, err = getEnvDuration("TM_SYNC_CACHE_TTL", time.Minute); err != nil {
		return nil, fmt.Errorf("TM_SYNC_CACHE_TTL: %w", err)
	}

	// --- Согласование и доступ ---

	cfg.WorkflowStrict, err = getEnvBool("TM_WORKFLOW_STRICT", false)
	if err != nil {
		return nil, fmt.Errorf("TM_WORKFLOW_STRICT: %w", err)
	}

	cfg.ValidationRoles, err = getEnvRoles("TM_VALIDATION_ROLES",
		"ROLE_HEAD_MARKET,ROLE_OFFICER,ROLE_TMANAGER,ROLE_PMANAGER")
	if err != nil {
		return nil, err
	}
	cfg.ProjectWriteRoles, err = getEnvRoles("TM_PROJECT_WRITE_ROLES", "ROLE_OFFICER")
	if err != nil {
		return nil, err
	}
	cfg.InvoiceRoles, err = getEnvRoles("TM_INVOICE_ROLES", "ROLE_OFFICER,ROLE_HEAD_MARKET")
	if err != nil {
		return nil, err
	}
	cfg.UserAdminRoles, err = getEnvRoles("TM_USER_ADMIN_ROLES", "ROLE_HEAD_MARKET")
	if err != nil {
		return nil, err
	}

	cfg.InvoiceCurrency = strings.ToUpper(getEnvDefault("TM_INVOICE_CURRENCY", "EUR"))
	if len(cfg.InvoiceCurrency) != 3 {
		return nil, fmt.Errorf("TM_INVOICE_CURRENCY: ожидается код ISO 4217 из трёх букв, получено %q", cfg.InvoiceCurrency)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("TM_DEPHEALTH_GROUP", "stage")
	if cfg.DephealthCheckInterval, err = getEnvDuration("TM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second); err != nil {
		return nil, fmt.Errorf("TM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	if cfg.ShutdownTimeout, err = getEnvDuration("TM_SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, fmt.Errorf("TM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL (формат key=value).
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL со схемой scheme
// (postgres для topologymetrics, pgx5 для golang-migrate).
func (c *Config) DatabaseURL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(slog.String("service", ServiceName))
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (используйте true/false)", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvRoles разбирает список ролей через запятую. Пустой список недопустим.
func getEnvRoles(key, defaultVal string) ([]rbac.Role, error) {
	items := parseCSV(getEnvDefault(key, defaultVal))
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: список ролей пуст", key)
	}
	roles, err := rbac.ParseRoles(items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return roles, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
