package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Booking    BookingConfig    `yaml:"booking"`
	Dialogue   DialogueConfig   `yaml:"dialogue"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Restaurant RestaurantConfig `yaml:"restaurant"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	ReservationsTopic  string   `yaml:"reservations_topic"`
	EscalationsTopic   string   `yaml:"escalations_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	SlotLockTTLSeconds    int `yaml:"slot_lock_ttl_seconds"`
	TablesCacheTTLSeconds int `yaml:"tables_cache_ttl_seconds"`
	MaxReserveAttempts    int `yaml:"max_reserve_attempts"`
}

func (b BookingConfig) SlotLockTTL() time.Duration {
	return time.Duration(b.SlotLockTTLSeconds) * time.Second
}

func (b BookingConfig) TablesCacheTTL() time.Duration {
	return time.Duration(b.TablesCacheTTLSeconds) * time.Second
}

type DialogueConfig struct {
	HistoryWindow  int     `yaml:"history_window"`
	DefaultTime    string  `yaml:"default_time"`
	EscalateBelow  float64 `yaml:"escalate_below"`
	MaxInputLength int     `yaml:"max_input_length"`
}

type OracleConfig struct {
	// Provider is "gemini", "openai" or "none".
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

type RestaurantConfig struct {
	Name         string `yaml:"name"`
	Phone        string `yaml:"phone"`
	Address      string `yaml:"address"`
	WorkingHours string `yaml:"working_hours"`
	Greeting     string `yaml:"greeting"`
	Timezone     string `yaml:"timezone"`
}

// Location resolves the restaurant timezone, falling back to the process local zone.
func (r RestaurantConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		log.Printf("config: unknown timezone %q, using local: %v", r.Timezone, err)
		return time.Local
	}
	return loc
}

type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
}

func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	switch cfg.Oracle.Provider {
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			cfg.Oracle.APIKey = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.Oracle.APIKey = v
		}
	}
	if v := os.Getenv("DIALOGUE_HISTORY_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dialogue.HistoryWindow = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.GRPC.Address == "" {
		cfg.GRPC.Address = ":9090"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Kafka.ReservationsTopic == "" {
		cfg.Kafka.ReservationsTopic = "reservations"
	}
	if cfg.Kafka.EscalationsTopic == "" {
		cfg.Kafka.EscalationsTopic = "escalations"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "tablebot-worker"
	}
	if cfg.Booking.SlotLockTTLSeconds == 0 {
		cfg.Booking.SlotLockTTLSeconds = 10
	}
	if cfg.Booking.TablesCacheTTLSeconds == 0 {
		cfg.Booking.TablesCacheTTLSeconds = 300
	}
	if cfg.Booking.MaxReserveAttempts == 0 {
		cfg.Booking.MaxReserveAttempts = 3
	}
	if cfg.Dialogue.HistoryWindow == 0 {
		cfg.Dialogue.HistoryWindow = 50
	}
	if cfg.Dialogue.DefaultTime == "" {
		cfg.Dialogue.DefaultTime = "19:00"
	}
	if cfg.Dialogue.EscalateBelow == 0 {
		cfg.Dialogue.EscalateBelow = 0.6
	}
	if cfg.Dialogue.MaxInputLength == 0 {
		cfg.Dialogue.MaxInputLength = 2000
	}
	if cfg.Oracle.Provider == "" {
		cfg.Oracle.Provider = "none"
	}
	if cfg.Oracle.Model == "" {
		switch cfg.Oracle.Provider {
		case "gemini":
			cfg.Oracle.Model = "gemini-2.0-flash"
		case "openai":
			cfg.Oracle.Model = "gpt-4o-mini"
		}
	}
	if cfg.Restaurant.WorkingHours == "" {
		cfg.Restaurant.WorkingHours = "10:00-23:00"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "tablebot"
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Oracle.Provider {
	case "gemini", "openai", "none":
	default:
		return fmt.Errorf("unsupported oracle provider %q", c.Oracle.Provider)
	}
	if _, err := time.Parse("15:04", c.Dialogue.DefaultTime); err != nil {
		return fmt.Errorf("invalid dialogue.default_time %q: %w", c.Dialogue.DefaultTime, err)
	}
	if c.Dialogue.EscalateBelow < 0 || c.Dialogue.EscalateBelow > 1 {
		return fmt.Errorf("dialogue.escalate_below must be within [0,1], got %v", c.Dialogue.EscalateBelow)
	}
	return nil
}
