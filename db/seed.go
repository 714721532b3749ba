package db

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk shape of sample student documents, keyed by
// student id.
type SeedFile struct {
	Students map[string]map[string]any `yaml:"students"`
}

// LoadSeedFile reads sample student documents from a YAML file.
func LoadSeedFile(path string) (map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return seed.Students, nil
}
