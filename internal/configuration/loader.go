package configuration

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigDir = "internal/static"

var envVarPattern = regexp.MustCompile(`\${([^}]+)}`)

// Load reads the base application config plus the profile overlay selected
// by app.profile. The config directory defaults to internal/static and can
// be overridden with CORVUSDB_CONFIG_DIR.
func Load() (*Properties, error) {
	dir := os.Getenv("CORVUSDB_CONFIG_DIR")
	if dir == "" {
		dir = defaultConfigDir
	}
	return LoadDir(dir)
}

func LoadDir(dir string) (*Properties, error) {
	cfg := &Properties{}
	if err := loadInto(dir, "application", cfg); err != nil {
		slog.Error("error loading base config", "error", err)
		return nil, err
	}

	if cfg.App.Profile != "" {
		overlay := "application-" + cfg.App.Profile
		if err := loadInto(dir, overlay, cfg); err != nil {
			slog.Error("error loading profile config", "profile", cfg.App.Profile, "error", err)
			return nil, err
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

// loadInto reads dir/name.yml, expands ${VAR} references and unmarshals
// the result over cfg, so later files overlay earlier ones.
func loadInto(dir, name string, cfg *Properties) error {
	path := filepath.Join(dir, name+".yml")

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	expanded, err := expandEnvStrict(string(raw))
	if err != nil {
		return fmt.Errorf("expand %s: %w", path, err)
	}

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// expandEnvStrict substitutes ${VAR} references, failing when any
// referenced variable is unset instead of silently substituting an empty
// string.
func expandEnvStrict(s string) (string, error) {
	var missing []string

	out := envVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[2 : len(ref)-1]
		val, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return val
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("environment variables not set: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func applyDefaults(cfg *Properties) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Transport.Network == "" {
		cfg.Transport.Network = "tcp"
	}
	if cfg.Transport.SendQueueSize <= 0 {
		cfg.Transport.SendQueueSize = 128
	}
	if cfg.Cluster.HeartbeatTxInterval == 0 {
		cfg.Cluster.HeartbeatTxInterval = 150
	}
	if cfg.Cluster.QuantumInterval == 0 {
		cfg.Cluster.QuantumInterval = 1000
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}
