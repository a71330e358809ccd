package config

import (
	"log"
	"os"

	"AegisGuard/pkg/logger"
	"AegisGuard/pkg/util"
)

// Config is the process-wide configuration, loaded from the environment.
type Config struct {
	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`
	Addr     string `env:"ADDR"`
	Mode     string `env:"MODE"`

	Log logger.LogConfig

	APIPrefix string `env:"API_PREFIX"`

	LLMApiKey  string `env:"LLM_API_KEY"`
	LLMBaseURL string `env:"LLM_BASE_URL"`
	LLMModel   string `env:"LLM_MODEL"`

	SMSGatewayURL   string `env:"SMS_GATEWAY_URL"`
	SMSGatewayKey   string `env:"SMS_GATEWAY_KEY"`
	VoiceGatewayURL string `env:"VOICE_GATEWAY_URL"`

	GeoIPPath string `env:"GEOIP_PATH"`

	CacheType     string `env:"CACHE_TYPE"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	ThreatUpdateIntervalMs int64   `env:"THREAT_UPDATE_INTERVAL_MS"`
	ThreatSensitivity      float64 `env:"THREAT_SENSITIVITY"`

	EmergencyNumber string `env:"EMERGENCY_NUMBER"`

	BackupDir  string `env:"BACKUP_DIR"`
	BackupKeep int    `env:"BACKUP_KEEP"`
}

var GlobalConfig *Config

// Load reads .env files for the current APP_ENV and fills GlobalConfig.
func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		DBDriver: util.GetEnv("DB_DRIVER"),
		DSN:      util.GetEnv("DSN"),
		Addr:     util.GetEnvDefault("ADDR", ":8080"),
		Mode:     util.GetEnv("MODE"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		APIPrefix:              util.GetEnvDefault("API_PREFIX", "/api"),
		LLMApiKey:              util.GetEnv("LLM_API_KEY"),
		LLMBaseURL:             util.GetEnv("LLM_BASE_URL"),
		LLMModel:               util.GetEnvDefault("LLM_MODEL", "gpt-4o-mini"),
		SMSGatewayURL:          util.GetEnv("SMS_GATEWAY_URL"),
		SMSGatewayKey:          util.GetEnv("SMS_GATEWAY_KEY"),
		VoiceGatewayURL:        util.GetEnv("VOICE_GATEWAY_URL"),
		GeoIPPath:              util.GetEnv("GEOIP_PATH"),
		CacheType:              util.GetEnvDefault("CACHE_TYPE", "gocache"),
		RedisAddr:              util.GetEnv("REDIS_ADDR"),
		RedisPassword:          util.GetEnv("REDIS_PASSWORD"),
		ThreatUpdateIntervalMs: util.GetIntEnv("THREAT_UPDATE_INTERVAL_MS"),
		ThreatSensitivity:      util.GetFloatEnv("THREAT_SENSITIVITY"),
		EmergencyNumber:        util.GetEnvDefault("EMERGENCY_NUMBER", "112"),
		BackupDir:              util.GetEnv("BACKUP_DIR"),
		BackupKeep:             int(util.GetIntEnv("BACKUP_KEEP")),
	}
	return nil
}
