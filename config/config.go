// Initializing common application configuration
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type ServerConfig struct {
	AppVersion  string        `mapstructure:"app_version"`
	Host        string        `mapstructure:"host"`
	Port        string        `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Env         string        `mapstructure:"environment"`
	Mode        string        `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Enabled      bool          `mapstructure:"enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"` // sandbox sender, e.g. +14155238886
	Enabled    bool   `mapstructure:"enabled"`
}

type ReminderConfig struct {
	Timezone          string `mapstructure:"timezone"`
	ScanIntervalMin   int    `mapstructure:"scan_interval_min"`
	EscalationEvery   int    `mapstructure:"escalation_every_min"`
	EscalationAfter   int    `mapstructure:"escalation_after_min"`
	DelayMinutes      int    `mapstructure:"delay_minutes"`
	DailyReportHour   int    `mapstructure:"daily_report_hour"`
	DailyReportMinute int    `mapstructure:"daily_report_minute"`
}

type WorkerConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	setDefaults(v)

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}

	// secrets come from the environment, never from the yaml file
	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		c.Twilio.AccountSID = sid
	}
	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		c.Twilio.AuthToken = token
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		c.Database.Password = pass
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("reminder.timezone", "America/Sao_Paulo")
	v.SetDefault("reminder.scan_interval_min", 1)
	v.SetDefault("reminder.escalation_every_min", 5)
	v.SetDefault("reminder.escalation_after_min", 20)
	v.SetDefault("reminder.delay_minutes", 10)
	v.SetDefault("reminder.daily_report_hour", 20)
	v.SetDefault("reminder.daily_report_minute", 0)

	v.SetDefault("redis.cache_ttl", 15*time.Minute)
	v.SetDefault("worker.batch_size", 100)
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
