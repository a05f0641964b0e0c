package marketconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a rules file, rejecting unknown fields, and compiles it
func Load(path string) (*Config, map[string]Rules, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read market rules: %w", err)
	}

	cfg, rules, err := Parse(data)
	if err != nil {
		return nil, nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, rules, data, nil
}

// Parse decodes and compiles rules YAML
// 알 수 없는 필드는 즉시 실패 (오타 방지)
func Parse(data []byte) (*Config, map[string]Rules, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode market rules: %w", err)
	}

	rules, err := Compile(&cfg)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, rules, nil
}

// Hash returns the SHA256 of the config's canonical JSON
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewSnapshot captures the loaded rules for audit
func NewSnapshot(cfg *Config, yamlData []byte) (*Snapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, len(cfg.Markets))
	for i, m := range cfg.Markets {
		symbols[i] = m.Symbol
	}

	return &Snapshot{
		ConfigHash: hash,
		ConfigYAML: string(yamlData),
		Symbols:    symbols,
		LoadedAt:   time.Now(),
	}, nil
}
