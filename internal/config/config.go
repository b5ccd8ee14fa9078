package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from netdive.yml.
type ProjectConfig struct {
	MaxDepth          int               `yaml:"maxDepth,omitempty"`
	ParallelBatchSize int               `yaml:"parallelBatchSize,omitempty"`
	FailureCap        int               `yaml:"failureCap,omitempty"`
	EvalPolicy        string            `yaml:"evalPolicy,omitempty"` // "auto-pass" or "strict"
	SnapshotPath      string            `yaml:"snapshotPath,omitempty"`
	StorePath         string            `yaml:"storePath,omitempty"`
	AgentEndpoints    map[string]string `yaml:"agentEndpoints,omitempty"` // skill -> base URL
	AgentBasePort     int               `yaml:"agentBasePort,omitempty"`
	Verbose           bool              `yaml:"verbose,omitempty"`
}

// Load attempts to read netdive.yml or netdive.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"netdive.yml", "netdive.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
