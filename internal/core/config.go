package core

//config.go

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Источники CSP-политики
const (
	CSPSourceBuiltin = "builtin" // csp.DefaultPolicies
	CSPSourceFile    = "file"    // YAML-файл CSP_POLICY_FILE
	CSPSourceMySQL   = "mysql"   // таблица csp_directives
)

// Config определяет настройки приложения (OWASP A05: Security Misconfiguration, A02: Cryptographic Failures)
type Config struct {
	AppName           string        `validate:"required"`                            // Имя приложения
	Addr              string        `validate:"required"`                            // Адрес HTTP-сервера (например, ":8080")
	Env               string        `validate:"oneof=dev staging prod"`              // Среда выполнения
	CSRFKey           string        `validate:"required"`                            // Ключ для CSRF-защиты
	Secure            bool          `validate:"-"`                                   // Включает HTTPS и связанные настройки безопасности
	CertFile          string        `validate:"required_if=Env prod Secure true"`    // Путь к TLS-сертификату
	KeyFile           string        `validate:"required_if=Env prod Secure true"`    // Путь к TLS-ключу
	ShutdownTimeout   time.Duration `validate:"gt=0"`                                // Таймаут для graceful shutdown
	ReadHeaderTimeout time.Duration `validate:"gt=0"`                                // Таймаут чтения заголовков HTTP-запроса
	ReadTimeout       time.Duration `validate:"gt=0"`                                // Таймаут чтения HTTP-запроса
	WriteTimeout      time.Duration `validate:"gt=0"`                                // Таймаут записи HTTP-ответа
	IdleTimeout       time.Duration `validate:"gt=0"`                                // Таймаут простоя соединения
	RequestTimeout    time.Duration `validate:"gte=0"`                               // Таймаут обработки запроса в middleware
	LogDir            string        `validate:"required"`                            // Каталог для лог-файлов
	TrustedProxies    []string      `validate:"dive,cidr|ip"`                        // Доверенные прокси (пусто — проверка выключена)
	CSPSource         string        `validate:"oneof=builtin file mysql"`            // Откуда брать CSP-политику
	CSPPolicyFile     string        `validate:"required_if=CSPSource file"`          // YAML с политикой
	MySQLDSN          string        `validate:"required_if=CSPSource mysql"`         // DSN для источника mysql
}

var validate = validator.New()

// Load загружает конфигурацию из переменных окружения с значениями по умолчанию (OWASP A05)
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", "cspguard"),
		Addr:              getEnv("HTTP_ADDR", ":8080"),
		Env:               getEnv("APP_ENV", "dev"),
		CSRFKey:           getEnv("CSRF_KEY", ""),
		Secure:            getEnv("SECURE", "") == "true",
		CertFile:          getEnv("TLS_CERT_FILE", ""),
		KeyFile:           getEnv("TLS_KEY_FILE", ""),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ReadHeaderTimeout: getEnvDuration("READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       getEnvDuration("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:      getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		LogDir:            getEnv("LOG_DIR", "logs"),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),
		CSPSource:         getEnv("CSP_SOURCE", CSPSourceBuiltin),
		CSPPolicyFile:     getEnv("CSP_POLICY_FILE", ""),
		MySQLDSN:          getEnv("MYSQL_DSN", ""),
	}

	if cfg.CSRFKey == "" {
		// В проде ключ обязан быть задан явно — иначе сессии ломаются при рестарте
		if cfg.Env == "prod" {
			return cfg, fmt.Errorf("config: CSRF_KEY is required in prod")
		}
		key, err := generateRandomKey()
		if err != nil {
			return cfg, err
		}
		cfg.CSRFKey = key
	}

	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	// Проверяет конфигурацию для продакшен-среды
	if cfg.Env == "prod" && len(cfg.CSRFKey) < 32 {
		return cfg, fmt.Errorf("config: CSRF_KEY too short for prod (%d < 32)", len(cfg.CSRFKey))
	}
	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

// getEnvList — список через запятую
func getEnvList(key string) []string {
	val := getEnv(key, "")
	if val == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// getEnvDuration возвращает значение длительности из переменной окружения или значение по умолчанию
func getEnvDuration(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		LogError("Неверный формат длительности", map[string]interface{}{"key": key, "value": val, "error": err.Error()})
		return def
	}
	return d
}

// generateRandomKey создаёт случайный 32-байтовый ключ для CSRF в формате base64
func generateRandomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("config: generate CSRF key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
