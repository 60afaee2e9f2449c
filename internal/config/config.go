package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	WorkerNode WorkerNodeConfig `yaml:"worker_node"`
	Processing ProcessingConfig `yaml:"processing"`
	Promotion  PromotionConfig  `yaml:"promotion"`
	Log        LogConfig        `yaml:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// WorkerNodeConfig describes the remote processing node: how to reach it,
// how to wake it, and how to ask it to suspend.
type WorkerNodeConfig struct {
	Host             string        `yaml:"host"               env:"WORKER_HOST"               env-required:"true"`
	MACAddress       string        `yaml:"mac_address"        env:"WORKER_MAC_ADDRESS"`
	APIPort          int           `yaml:"api_port"           env:"WORKER_API_PORT"           env-default:"8001"`
	ProbePort        int           `yaml:"probe_port"         env:"WORKER_PROBE_PORT"         env-default:"22"`
	WOLPort          int           `yaml:"wol_port"           env:"WORKER_WOL_PORT"           env-default:"9"`
	BroadcastAddr    string        `yaml:"broadcast_addr"     env:"WORKER_BROADCAST_ADDR"     env-default:"255.255.255.255"`
	SSHUser          string        `yaml:"ssh_user"           env:"WORKER_SSH_USER"           env-default:"worker"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"      env:"WORKER_PROBE_TIMEOUT"      env-default:"2s"`
	BootProbeTimeout time.Duration `yaml:"boot_probe_timeout" env:"WORKER_BOOT_PROBE_TIMEOUT" env-default:"30s"`
	SettleTime       time.Duration `yaml:"settle_time"        env:"WORKER_SETTLE_TIME"        env-default:"10s"`
	WakeAttempts     int           `yaml:"wake_attempts"      env:"WORKER_WAKE_ATTEMPTS"      env-default:"3"`
	WakeRetryDelay   time.Duration `yaml:"wake_retry_delay"   env:"WORKER_WAKE_RETRY_DELAY"   env-default:"5s"`
}

// ProcessingConfig holds batch pipeline settings.
type ProcessingConfig struct {
	BatchSize      int           `yaml:"batch_size"      env:"PROCESSING_BATCH_SIZE"      env-default:"100"`
	SubBatchSize   int           `yaml:"sub_batch_size"  env:"PROCESSING_SUB_BATCH_SIZE"  env-default:"20"`
	Workers        int           `yaml:"workers"         env:"PROCESSING_WORKERS"         env-default:"4"`
	ProcessTimeout time.Duration `yaml:"process_timeout" env:"PROCESSING_TIMEOUT"         env-default:"5m"`
	HealthTimeout  time.Duration `yaml:"health_timeout"  env:"PROCESSING_HEALTH_TIMEOUT"  env-default:"5s"`
	TargetLanguage string        `yaml:"target_language" env:"PROCESSING_TARGET_LANGUAGE" env-default:"en"`
}

// PromotionConfig holds tip promotion thresholds.
type PromotionConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"PROMOTION_SIMILARITY_THRESHOLD" env-default:"0.85"`
	MinMentions         int     `yaml:"min_mentions"         env:"PROMOTION_MIN_MENTIONS"         env-default:"3"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
