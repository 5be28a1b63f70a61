package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DBConfig holds the Postgres connection settings shared by the dispatcher
// and the sweeper.
type DBConfig struct {
	URL         string        `env:"NOTIF_DB_URL" env-required:"true"`
	MaxOpenConn int           `env:"NOTIF_DB_MAX_OPEN" env-default:"10"`
	ConnMaxIdle time.Duration `env:"NOTIF_DB_CONN_IDLE" env-default:"5m"`
}

// KafkaConfig holds the consumer group settings for the created-events topic.
type KafkaConfig struct {
	Brokers       []string `env:"KAFKA_BROKERS" env-required:"true"`
	Topic         string   `env:"KAFKA_TOPIC" env-default:"notifications.created"`
	ConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" env-default:"push-dispatcher"`
}

// PushConfig holds the delivery transport settings.
type PushConfig struct {
	Endpoint string        `env:"PUSH_ENDPOINT" env-required:"true"`
	APIKey   string        `env:"PUSH_API_KEY" env-required:"true"`
	Timeout  time.Duration `env:"PUSH_TIMEOUT" env-default:"10s"`
}

// TracingConfig holds the OTLP exporter settings.
type TracingConfig struct {
	Enabled     bool   `env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"http://localhost:4317"`
	Environment string `env:"APP_ENV" env-default:"dev"`
}

// DispatcherConfig is the full configuration of the dispatcher service.
type DispatcherConfig struct {
	Port    string `env:"DISPATCHER_PORT" env-default:"8080"`
	DB      DBConfig
	Kafka   KafkaConfig
	Push    PushConfig
	Tracing TracingConfig
}

// SweeperConfig is the full configuration of the retention sweeper.
type SweeperConfig struct {
	DB        DBConfig
	Hour      int    `env:"SWEEP_HOUR" env-default:"2"`
	Timezone  string `env:"SWEEP_TZ" env-default:"Asia/Ho_Chi_Minh"`
	ChunkSize int    `env:"SWEEP_CHUNK_SIZE" env-default:"500"`
}

// LoadDispatcher loads dispatcher configuration from the environment,
// reading a .env file first if one exists.
func LoadDispatcher() (*DispatcherConfig, error) {
	_ = godotenv.Load()

	var cfg DispatcherConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSweeper loads sweeper configuration from the environment.
func LoadSweeper() (*SweeperConfig, error) {
	_ = godotenv.Load()

	var cfg SweeperConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
