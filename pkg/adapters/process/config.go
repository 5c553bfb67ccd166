package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LauncherConfig maps a browsing target to the command that opens URLs in it.
type LauncherConfig struct {
	Target      string            `yaml:"target" json:"target"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of launchers.yaml
type ConfigFile struct {
	Launchers []LauncherConfig `yaml:"launchers" json:"launchers"`
}

// LoadLaunchers reads a configuration file (YAML or JSON) and returns the
// launchers keyed by target. A missing file yields no launchers.
func LoadLaunchers(path string) (map[string]LauncherConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]LauncherConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read launchers config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	launchers := make(map[string]LauncherConfig)
	for _, l := range cfg.Launchers {
		if l.Command == "" {
			continue
		}
		if l.Target == "" {
			l.Target = DefaultTarget
		}
		launchers[l.Target] = l
	}
	return launchers, nil
}
