package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultFirstMessage is what the assistant says when the operator leaves the
// message field blank.
const DefaultFirstMessage = "Hey I'm Sam calling from Dr. Carlos Yu's office. Do you have a moment to speak??"

// Config captures the full configuration surface for the application.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Vapi      VapiConfig      `mapstructure:"vapi"`
	Twilio    TwilioConfig    `mapstructure:"twilio"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	RunStore  RunStoreConfig  `mapstructure:"run_store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
	DotEnv  string `mapstructure:"dotenv"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// VapiConfig holds the call-placement API credentials.
type VapiConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	APIKey         string        `mapstructure:"api_key" validate:"required_unless=DryRun true"`
	AssistantID    string        `mapstructure:"assistant_id" validate:"required_unless=DryRun true"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	DryRun         bool          `mapstructure:"-"`
}

// TwilioConfig holds the telephony account the assistant dials out from.
type TwilioConfig struct {
	AccountSID  string `mapstructure:"account_sid" validate:"required_unless=DryRun true"`
	AuthToken   string `mapstructure:"auth_token" validate:"required_unless=DryRun true"`
	PhoneNumber string `mapstructure:"phone_number" validate:"required_unless=DryRun true"`
	Preflight   bool   `mapstructure:"preflight"`
	DryRun      bool   `mapstructure:"-"`
}

type DispatchConfig struct {
	CallInterval        time.Duration `mapstructure:"call_interval" validate:"gte=0"`
	DefaultFirstMessage string        `mapstructure:"default_first_message"`
	DryRun              bool          `mapstructure:"dry_run"`
}

type RunStoreConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	GateTTL      time.Duration `mapstructure:"gate_ttl"`
}

type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers" validate:"required_if=Enabled true"`
	ClientID    string   `mapstructure:"client_id"`
	ResultTopic string   `mapstructure:"result_topic" validate:"required_if=Enabled true"`
	Partitions  int      `mapstructure:"partitions"`
}

type TelemetryConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	ServiceName     string        `mapstructure:"service_name"`
	SampleRatio     float64       `mapstructure:"sample_ratio"`
	TracingEnabled  bool          `mapstructure:"tracing_enabled"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// legacyEnv maps the secret names the tool has always been deployed with.
var legacyEnv = map[string]string{
	"vapi.api_key":        "VAPI_API_KEY",
	"vapi.assistant_id":   "VAPI_ASSISTANT_ID",
	"twilio.account_sid":  "TWILIO_ACCOUNT_SID",
	"twilio.auth_token":   "TWILIO_AUTH_TOKEN",
	"twilio.phone_number": "TWILIO_PHONE_NUMBER",
}

// Load reads configuration from file and environment variables. A missing
// config file is not an error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvPrefix("BULKCALLER")
	v.SetEnvKeyReplacer(NewEnvReplacer())

	for key, legacy := range legacyEnv {
		prefixed := "BULKCALLER_" + strings.ToUpper(NewEnvReplacer().Replace(key))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	if dotenv := v.GetString("app.dotenv"); dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to load %s: %w", dotenv, err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	if cfg.Dispatch.DefaultFirstMessage == "" {
		cfg.Dispatch.DefaultFirstMessage = DefaultFirstMessage
	}
	cfg.Vapi.DryRun = cfg.Dispatch.DryRun
	cfg.Twilio.DryRun = cfg.Dispatch.DryRun

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required credentials and value ranges.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}

// NewEnvReplacer standardizes environment variable names.
func NewEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "bulk-caller")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.dotenv", ".env")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)

	v.SetDefault("vapi.base_url", "https://api.vapi.ai")
	v.SetDefault("vapi.api_key", "")
	v.SetDefault("vapi.assistant_id", "")
	v.SetDefault("vapi.request_timeout", 30*time.Second)

	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.phone_number", "")
	v.SetDefault("twilio.preflight", false)

	v.SetDefault("dispatch.call_interval", time.Second)
	v.SetDefault("dispatch.default_first_message", DefaultFirstMessage)
	v.SetDefault("dispatch.dry_run", false)

	v.SetDefault("run_store.backend", "memory")
	v.SetDefault("run_store.ttl", time.Hour)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.key_prefix", "bulkcaller")
	v.SetDefault("redis.gate_ttl", 5*time.Minute)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.client_id", "bulk-caller")
	v.SetDefault("kafka.result_topic", "bulkcaller.call-results")
	v.SetDefault("kafka.partitions", 6)

	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "bulk-caller")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.shutdown_timeout", 5*time.Second)
}
