package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverFile   = "file"
)

type Config struct {
	Server    ServerConfig
	Source    SourceConfig
	Storage   StorageConfig
	Recommend RecommendConfig
	Log       LogConfig
	API       APIConfig
}

type ServerConfig struct {
	Port int
}

type SourceConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	SnapshotPath  string
}

type StorageConfig struct {
	DataDir string
}

type RecommendConfig struct {
	TopN        int
	Concurrency int
}

type LogConfig struct {
	Level string
}

type APIConfig struct {
	Token string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Source: SourceConfig{
			Driver:        DriverSQLite,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "learnnova",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Recommend: RecommendConfig{
			TopN:        5,
			Concurrency: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/coursematch/config.json, then applies COURSEMATCH_*
// environment overrides. Secrets are read from the environment only.
func Load() (Config, error) {
	f, err := openSettings(configFilePath())
	if err != nil {
		return Config{}, err
	}
	return loadWith(f)
}

func loadWith(f *settingsFile) (Config, error) {
	cfg, err := resolve(f)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolve layers defaults, the settings file and the environment without
// validating the result.
func resolve(f *settingsFile) (Config, error) {
	cfg := defaults()
	if err := applyFile(&cfg, f); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Validate checks that the settings needed by the selected driver are present.
func (c Config) Validate() error {
	switch c.Source.Driver {
	case DriverSQLite:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("missing required config: storage.data_dir")
		}
	case DriverMongo:
		if c.Source.MongoURI == "" {
			return fmt.Errorf("missing required config: source.mongo_uri")
		}
	case DriverFile:
		if c.Source.SnapshotPath == "" {
			return fmt.Errorf("missing required config: source.snapshot_path " +
				"(set COURSEMATCH_SOURCE_SNAPSHOT_PATH or run `coursematch config set source.snapshot_path <file>`)")
		}
	default:
		return fmt.Errorf("invalid source.driver %q: want one of %s", c.Source.Driver,
			strings.Join([]string{DriverSQLite, DriverMongo, DriverFile}, ", "))
	}
	if c.Recommend.TopN <= 0 {
		return fmt.Errorf("invalid recommend.top_n %d: must be positive", c.Recommend.TopN)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "coursematch-data"
		}
	}
	return filepath.Join(dir, "coursematch")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "coursematch", "config.json")
}
