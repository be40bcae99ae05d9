package redlockconf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Errors returned by Load.
var (
	ErrUnsupportedFormat = fmt.Errorf("redlockconf: unsupported config format")
	ErrParseFailed       = fmt.Errorf("redlockconf: failed to parse config")
)

// ServerConfig names one backing Redis-compatible server.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// Settings is the fixed configuration shape for a redlock Coordinator
// and its CLI.
type Settings struct {
	Servers []ServerConfig `koanf:"servers"`

	NetworkTimeout time.Duration `koanf:"network_timeout"`
	Tries          int           `koanf:"tries"`
	RetryDelay     time.Duration `koanf:"retry_delay"`
	RetryJitter    time.Duration `koanf:"retry_jitter"`
	DriftFactor    float64       `koanf:"drift_factor"`
	KeyPrefix      string        `koanf:"key_prefix"`
}

// Defaults mirrors the spec's documented fallbacks: a single server at
// redis://localhost:6379 (Load, not Defaults, applies any
// DEFAULT_REDIS_HOST/DEFAULT_REDIS_PORT override), a 0.1s per-instance
// timeout, retry count 3, retry delay 200ms, retry jitter 50ms.
func Defaults() *Settings {
	return &Settings{
		Servers:        []ServerConfig{{Addr: "redis://localhost:6379"}},
		NetworkTimeout: 100 * time.Millisecond,
		Tries:          4, // retryCount(3) + 1 initial attempt
		RetryDelay:     200 * time.Millisecond,
		RetryJitter:    50 * time.Millisecond,
		DriftFactor:    0.01,
		KeyPrefix:      "lock:",
	}
}

// Format is a supported config-file serialization.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Load builds Settings by layering, lowest precedence first: the
// package defaults, an optional config file (YAML or JSON; empty path
// skips this layer), then DEFAULT_REDIS_HOST/DEFAULT_REDIS_PORT
// environment overrides of the first server's address. The environment
// layer applies only when the file did not set its own servers list; a
// file that sets servers wins over the environment.
func Load(path string, format Format) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("redlockconf: load defaults: %w", err)
	}

	fileSetServers := false
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("redlockconf: read %s: %w", path, err)
		}
		parser, err := parserFor(format)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}

		fileOnly := koanf.New(".")
		if err := fileOnly.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
		fileSetServers = fileOnly.Exists("servers")
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, fmt.Errorf("redlockconf: unmarshal: %w", err)
	}

	applyRedisHostPortEnv(&settings, fileSetServers)
	return &settings, nil
}

func parserFor(format Format) (koanf.Parser, error) {
	switch format {
	case FormatYAML:
		return yaml.Parser(), nil
	case FormatJSON:
		return json.Parser(), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// applyRedisHostPortEnv overrides the first server's address from
// DEFAULT_REDIS_HOST/DEFAULT_REDIS_PORT, falling back to localhost/6379
// for whichever half is unset, exactly as the spec's environment
// override contract describes. It only ever touches the default server
// list: a file layer that explicitly configured its own servers wins
// outright, matching Load's documented precedence (a file's servers
// list wins; env values apply whenever the file did not set servers,
// including when no file is given).
func applyRedisHostPortEnv(s *Settings, fileSetServers bool) {
	if fileSetServers {
		return
	}
	host := envOr("DEFAULT_REDIS_HOST", "")
	port := envOr("DEFAULT_REDIS_PORT", "")
	if host == "" && port == "" {
		return
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}
	addr := "redis://" + host + ":" + port

	if len(s.Servers) == 0 {
		s.Servers = []ServerConfig{{Addr: addr}}
		return
	}
	s.Servers[0].Addr = addr
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}
