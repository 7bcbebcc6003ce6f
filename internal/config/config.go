package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		NotifyEmail  string `yaml:"notify_email"` // advisory team inbox
		Enabled      bool   `yaml:"enabled"`
	} `yaml:"email"`

	Recommendation struct {
		QuickMatchLimit int           `yaml:"quick_match_limit"` // top-N of a quick run
		CorpusBatchSize int           `yaml:"corpus_batch_size"` // loading stage batch
		StepDelay       time.Duration `yaml:"step_delay"`        // pacing between pipeline sub-steps
		RunRetention    time.Duration `yaml:"run_retention"`     // finished runs stay visible this long
	} `yaml:"recommendation"`
}

var AppConfig *Config

// LoadConfig reads config.yaml unless DATABASE_URL is set, in which case the
// whole config comes from environment variables (test mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Recommendation.QuickMatchLimit == 0 {
		cfg.Recommendation.QuickMatchLimit = 24
	}
	if cfg.Recommendation.CorpusBatchSize == 0 {
		cfg.Recommendation.CorpusBatchSize = 50
	}
	if cfg.Recommendation.StepDelay == 0 {
		cfg.Recommendation.StepDelay = 40 * time.Millisecond
	}
	if cfg.Recommendation.RunRetention == 0 {
		cfg.Recommendation.RunRetention = 30 * time.Minute
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
