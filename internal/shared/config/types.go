package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a redis endpoint is configured.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
	// IngestSecret signs bearer tokens accepted by the ingest endpoint.
	// Empty leaves the endpoint open.
	IngestSecret    string `mapstructure:"ingest_secret"`
	IngestRateLimit int    `mapstructure:"ingest_rate_limit"`
}

// PaymentConfig holds static tuning for order allocation, polling and notification.
type PaymentConfig struct {
	OrderTTLMinutes       int    `mapstructure:"order_ttl_minutes"`
	PollIntervalMs        int    `mapstructure:"poll_interval_ms"`
	PollFloorMs           int    `mapstructure:"poll_floor_ms"`
	PollConcurrency       int    `mapstructure:"poll_concurrency"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	AllocationRetries     int    `mapstructure:"allocation_retries"`
	ReservationTTLSeconds int    `mapstructure:"reservation_ttl_seconds"`
	NotifyRetries         int    `mapstructure:"notify_retries"`
	ExpirySweepSeconds    int    `mapstructure:"expiry_sweep_seconds"`
	TronGridBaseURL       string `mapstructure:"trongrid_base_url"`
	BscScanBaseURL        string `mapstructure:"bscscan_base_url"`
	BusinessTimezone      string `mapstructure:"business_timezone"`
}

func (p *PaymentConfig) OrderTTL() time.Duration {
	return time.Duration(p.OrderTTLMinutes) * time.Minute
}

func (p *PaymentConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds) * time.Second
}

func (p *PaymentConfig) ReservationTTL() time.Duration {
	return time.Duration(p.ReservationTTLSeconds) * time.Second
}

func (p *PaymentConfig) ExpirySweepInterval() time.Duration {
	return time.Duration(p.ExpirySweepSeconds) * time.Second
}

type QueueConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	QueueURL  string `mapstructure:"queue_url"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}
