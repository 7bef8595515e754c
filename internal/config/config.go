package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Cache    CacheConfig    `yaml:"cache"`
	Recorder RecorderConfig `yaml:"recorder"`
	Overpass OverpassConfig `yaml:"overpass"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"` // HTTP listen address (e.g. :8080)
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DataConfig struct {
	PredictionsDir  string        `yaml:"predictions_dir"`
	ObservationsDir string        `yaml:"observations_dir"`
	RetryInterval   time.Duration `yaml:"retry_interval"` // catalog initialization retry
}

type CacheConfig struct {
	Size int `yaml:"size"` // decoded collections kept in memory, 0 disables
}

type RecorderConfig struct {
	Driver    string        `yaml:"driver"` // "", "postgres" or "sqlite"
	DSN       string        `yaml:"dsn"`
	Influx    InfluxConfig  `yaml:"influx"`
	QueueSize int           `yaml:"queue_size"` // snapshots waiting to be written
	Timeout   time.Duration `yaml:"timeout"`    // per snapshot write
}

type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type OverpassConfig struct {
	Endpoint    string        `yaml:"endpoint"` // empty disables harbour lookup
	Timeout     time.Duration `yaml:"timeout"`
	MaxParallel int           `yaml:"max_parallel"`
	RadiusKm    float64       `yaml:"radius_km"` // default search radius
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Data: DataConfig{
			PredictionsDir:  "data/predictions",
			ObservationsDir: "data/geojson",
			RetryInterval:   30 * time.Second,
		},
		Recorder: RecorderConfig{
			QueueSize: 256,
			Timeout:   5 * time.Second,
		},
		Overpass: OverpassConfig{
			Timeout:     30 * time.Second,
			MaxParallel: 2,
			RadiusKm:    50,
		},
	}
}

// Load reads the YAML file at configPath over the defaults, then applies
// environment overrides. With an empty path the usual locations are
// tried and a missing file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath == "" {
		for _, p := range []string{"configs/hsi.yaml", "hsi.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				break
			}
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getEnv("HSI_ADDR", cfg.Server.Addr)
	cfg.Data.PredictionsDir = getEnv("PREDICTIONS_DIR", cfg.Data.PredictionsDir)
	cfg.Data.ObservationsDir = getEnv("OBSERVATIONS_DIR", cfg.Data.ObservationsDir)
	cfg.Data.RetryInterval = getEnvDuration("CATALOG_RETRY_INTERVAL", cfg.Data.RetryInterval)
	cfg.Cache.Size = getEnvInt("CACHE_SIZE", cfg.Cache.Size)

	cfg.Recorder.Driver = getEnv("STATS_DB_DRIVER", cfg.Recorder.Driver)
	cfg.Recorder.DSN = getEnv("STATS_DB_DSN", cfg.Recorder.DSN)
	if url := os.Getenv("POSTGRES_URL"); url != "" && cfg.Recorder.DSN == "" {
		cfg.Recorder.Driver = "postgres"
		cfg.Recorder.DSN = url
	}
	cfg.Recorder.Influx.URL = getEnv("INFLUX_URL", cfg.Recorder.Influx.URL)
	cfg.Recorder.Influx.Token = getEnv("INFLUX_TOKEN", cfg.Recorder.Influx.Token)
	cfg.Recorder.Influx.Org = getEnv("INFLUX_ORG", cfg.Recorder.Influx.Org)
	cfg.Recorder.Influx.Bucket = getEnv("INFLUX_BUCKET", cfg.Recorder.Influx.Bucket)

	cfg.Overpass.Endpoint = getEnv("OVERPASS_URL", cfg.Overpass.Endpoint)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Data.RetryInterval <= 0 {
		cfg.Data.RetryInterval = 30 * time.Second
	}
	if cfg.Cache.Size < 0 {
		cfg.Cache.Size = 0
	}
	if cfg.Recorder.QueueSize <= 0 {
		cfg.Recorder.QueueSize = 256
	}
	if cfg.Recorder.Timeout <= 0 {
		cfg.Recorder.Timeout = 5 * time.Second
	}
	if cfg.Recorder.Driver == "sqlite" && cfg.Recorder.DSN == "" {
		cfg.Recorder.DSN = "hsi_stats.db"
	}
	if cfg.Overpass.Timeout <= 0 {
		cfg.Overpass.Timeout = 30 * time.Second
	}
	if cfg.Overpass.MaxParallel <= 0 {
		cfg.Overpass.MaxParallel = 2
	}
	if cfg.Overpass.RadiusKm <= 0 {
		cfg.Overpass.RadiusKm = 50
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
