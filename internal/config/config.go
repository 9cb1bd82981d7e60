// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	DriverBotToken string `envconfig:"DRIVER_BOT_TOKEN" required:"true"`
	AdminBotToken  string `envconfig:"ADMIN_BOT_TOKEN" required:"true"`
	// Группа операторов: только она видит админ-команды
	AdminGroupID int64 `envconfig:"ADMIN_GROUP_ID" required:"true"`

	// --- Database ---
	// Дефолт "postgres" — имя сервиса в docker-compose, для локалки DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"teamhub"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"America/New_York"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно на один бот.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Geocoding (Nominatim) ---
	GeoBaseURL      string        `envconfig:"GEO_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	GeoUserAgent    string        `envconfig:"GEO_USER_AGENT" default:"TeamHubBot/1.0"`
	GeoCountryCodes string        `envconfig:"GEO_COUNTRY_CODES" default:"us"`
	GeoTimeout      time.Duration `envconfig:"GEO_TIMEOUT" default:"5s"`

	// --- DB Listener ---
	ListenerChannelsRaw string        `envconfig:"LISTENER_CHANNELS" default:"new_driver,user_approved"`
	ListenerChannels    []string      `envconfig:"-"` // заполним вручную
	ListenerBackoff     time.Duration `envconfig:"LISTENER_BACKOFF" default:"5s"`
	ListenerMaxBackoff  time.Duration `envconfig:"LISTENER_MAX_BACKOFF" default:"5s"`
	ListenerHeartbeat   time.Duration `envconfig:"LISTENER_HEARTBEAT" default:"1s"`

	// 1 — фиксированная пауза; больше 1 — рост до LISTENER_MAX_BACKOFF
	ListenerBackoffFactor float64 `envconfig:"LISTENER_BACKOFF_FACTOR" default:"1"`

	// --- Reminders ---
	ReminderInactiveHours int    `envconfig:"REMINDER_INACTIVE_HOURS" default:"12"`
	ReminderCron          string `envconfig:"REMINDER_CRON" default:"*/30 * * * *"`

	// --- Metrics ---
	// Пусто — HTTP-эндпоинт /metrics не поднимается
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate проверяет значения, которые envconfig проверить не может.
func (c *Config) Validate() error {
	if c.AdminGroupID == 0 {
		return fmt.Errorf("ADMIN_GROUP_ID не задан или равен 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS и RATE_LIMIT_WINDOW должны быть > 0")
	}
	if c.GeoTimeout <= 0 {
		return fmt.Errorf("GEO_TIMEOUT должен быть > 0")
	}
	if c.ListenerBackoff <= 0 || c.ListenerHeartbeat <= 0 {
		return fmt.Errorf("LISTENER_BACKOFF и LISTENER_HEARTBEAT должны быть > 0")
	}
	if c.ListenerMaxBackoff < c.ListenerBackoff {
		return fmt.Errorf("LISTENER_MAX_BACKOFF не может быть меньше LISTENER_BACKOFF")
	}
	if c.ListenerBackoffFactor < 1 {
		return fmt.Errorf("LISTENER_BACKOFF_FACTOR должен быть >= 1")
	}
	if c.ReminderInactiveHours <= 0 {
		return fmt.Errorf("REMINDER_INACTIVE_HOURS должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	cfg.ListenerChannels = parseCSV(cfg.ListenerChannelsRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseCSV режет список через запятую, пустые элементы выкидывает.
// Пустой список каналов допустим: listener просто держит соединение.
func parseCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
