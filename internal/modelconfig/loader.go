package modelconfig

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

// Load reads a YAML file and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, data, nil
}

// Parse decodes and validates a YAML (or JSON) document
func Parse(data []byte) (*Config, error) {
	return Merge(&Config{}, data)
}

// Merge decodes data over a copy of base; fields absent from data keep base values.
// An empty document returns a validated copy of base.
func Merge(base *Config, data []byte) (*Config, error) {
	cfg := *base
	if base.Synthesis.Seed != nil {
		seed := *base.Synthesis.Seed
		cfg.Synthesis.Seed = &seed
	}

	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode model config: %w", err)
		}
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal renders cfg as YAML
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewRunSnapshot creates a snapshot for audit. yamlData may be nil, in which case the
// config is rendered.
func NewRunSnapshot(cfg *Config, yamlData []byte, loadPointID string) (*RunSnapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	if yamlData == nil {
		if yamlData, err = Marshal(cfg); err != nil {
			return nil, err
		}
	}

	return &RunSnapshot{
		ConfigHash:  hash,
		ConfigYAML:  string(yamlData),
		ModelID:     cfg.Meta.ModelID,
		LoadPointID: loadPointID,
		CreatedAt:   time.Now(),
	}, nil
}
