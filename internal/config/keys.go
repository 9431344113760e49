package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "COURSEMATCH_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "source.driver", typ: kString, env: "COURSEMATCH_SOURCE_DRIVER",
		apply:   func(cfg *Config, v any) { cfg.Source.Driver = v.(string) },
		extract: func(cfg Config) any { return cfg.Source.Driver },
	},
	{
		key: "source.mongo_uri", typ: kString, env: "COURSEMATCH_SOURCE_MONGO_URI",
		apply:   func(cfg *Config, v any) { cfg.Source.MongoURI = v.(string) },
		extract: func(cfg Config) any { return cfg.Source.MongoURI },
	},
	{
		key: "source.mongo_database", typ: kString, env: "COURSEMATCH_SOURCE_MONGO_DATABASE",
		apply:   func(cfg *Config, v any) { cfg.Source.MongoDatabase = v.(string) },
		extract: func(cfg Config) any { return cfg.Source.MongoDatabase },
	},
	{
		key: "source.snapshot_path", typ: kString, env: "COURSEMATCH_SOURCE_SNAPSHOT_PATH",
		apply:   func(cfg *Config, v any) { cfg.Source.SnapshotPath = v.(string) },
		extract: func(cfg Config) any { return cfg.Source.SnapshotPath },
	},
	{
		key: "storage.data_dir", typ: kString, env: "COURSEMATCH_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "recommend.top_n", typ: kInt, env: "COURSEMATCH_RECOMMEND_TOP_N",
		apply:   func(cfg *Config, v any) { cfg.Recommend.TopN = v.(int) },
		extract: func(cfg Config) any { return cfg.Recommend.TopN },
	},
	{
		key: "recommend.concurrency", typ: kInt, env: "COURSEMATCH_RECOMMEND_CONCURRENCY",
		apply:   func(cfg *Config, v any) { cfg.Recommend.Concurrency = v.(int) },
		extract: func(cfg Config) any { return cfg.Recommend.Concurrency },
	},
	{
		key: "log.level", typ: kString, env: "COURSEMATCH_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "api.token", typ: kString, env: "COURSEMATCH_API_TOKEN",
		secret: true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// coerce converts a raw settings-file value to the key's type. JSON numbers
// arrive as float64; integer keys also accept numeric strings.
func (s keySpec) coerce(raw any) (any, error) {
	switch s.typ {
	case kString:
		if v, ok := raw.(string); ok {
			return v, nil
		}
		return nil, fmt.Errorf("%s: want a string, got %v", s.key, raw)
	case kInt:
		switch v := raw.(type) {
		case float64:
			if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("%s: %v is not a valid integer", s.key, v)
			}
			return int(v), nil
		case int:
			return v, nil
		case string:
			return s.parse(v)
		}
		return nil, fmt.Errorf("%s: want an integer, got %v", s.key, raw)
	}
	return nil, fmt.Errorf("%s: unknown key type", s.key)
}

// parse converts a command-line or environment string to the key's type.
func (s keySpec) parse(raw string) (any, error) {
	if s.typ == kString {
		return raw, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid integer value for %s: %w", s.key, err)
	}
	return i, nil
}

func applyFile(cfg *Config, f *settingsFile) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		raw, ok := f.lookup(s.key)
		if !ok {
			continue
		}
		v, err := s.coerce(raw)
		if err != nil {
			return fmt.Errorf("config file %s: %w", f.path, err)
		}
		s.apply(cfg, v)
	}
	return nil
}

// envValue returns the parsed environment override for s, if one is set and
// valid. Invalid values are reported and ignored.
func envValue(s keySpec) (any, bool) {
	raw := os.Getenv(s.env)
	if s.env == "" || raw == "" {
		return nil, false
	}
	v, err := s.parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] ignoring %s=%q: %v\n", s.env, raw, err)
		return nil, false
	}
	return v, true
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if v, ok := envValue(s); ok {
			s.apply(cfg, v)
		}
	}
}
