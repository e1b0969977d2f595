package internal

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port               int      `mapstructure:"port"`
	UploadDir          string   `mapstructure:"upload_dir"`
	StorageBackend     string   `mapstructure:"storage_backend"`
	MaxFileSizeBytes   int64    `mapstructure:"max_file_size_bytes"`
	MaxFilesPerRequest int      `mapstructure:"max_files_per_request"`
	AuthUsername       string   `mapstructure:"auth_username"`
	AuthPassword       string   `mapstructure:"auth_password"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	Thumbnails         bool     `mapstructure:"thumbnails"`
	DBPath             string   `mapstructure:"db_path"`
	MigrationsPath     string   `mapstructure:"migrations_path"`
	S3Endpoint         string   `mapstructure:"s3_endpoint"`
	S3Bucket           string   `mapstructure:"s3_bucket"`
	S3AccessKey        string   `mapstructure:"s3_access_key"`
	S3SecretKey        string   `mapstructure:"s3_secret_key"`
	S3Region           string   `mapstructure:"s3_region"`
	S3UseSSL           bool     `mapstructure:"s3_use_ssl"`
}

type ClientConfig struct {
	ServerURL      string        `mapstructure:"server_url"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	SourceDir      string        `mapstructure:"source_dir"`
	DedupPath      string        `mapstructure:"dedup_path"`
	Concurrency    int           `mapstructure:"concurrency"`
	BatchSize      int           `mapstructure:"batch_size"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayMin  time.Duration `mapstructure:"retry_delay_min"`
	RetryDelayMax  time.Duration `mapstructure:"retry_delay_max"`
	RecentWindow   int           `mapstructure:"recent_window"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
}

const defaultConfigPath = "files/config.yaml"

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upload_dir", "./uploads")
	v.SetDefault("server.storage_backend", "local")
	v.SetDefault("server.max_file_size_bytes", 20*1024*1024)
	v.SetDefault("server.max_files_per_request", 200)
	v.SetDefault("server.thumbnails", true)
	v.SetDefault("server.db_path", "files/albumkeep.db")
	v.SetDefault("server.migrations_path", "file://files/migrations")

	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.source_dir", ".")
	v.SetDefault("client.dedup_path", "files/uploaded.keys")
	v.SetDefault("client.concurrency", 3)
	v.SetDefault("client.batch_size", 50)
	v.SetDefault("client.max_retries", 1)
	v.SetDefault("client.retry_delay_min", 5*time.Second)
	v.SetDefault("client.retry_delay_max", 30*time.Second)
	v.SetDefault("client.recent_window", 20)
	v.SetDefault("client.request_timeout", 5*time.Minute)

	v.SetEnvPrefix("ALBUMKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := os.Getenv("ALBUMKEEP_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus environment
		// variables fully describe a working setup.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
