package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedUser describes one household member in a seed file.
type SeedUser struct {
	ActorID        int64  `yaml:"actor_id"`
	Name           string `yaml:"name"`
	PartnerActorID *int64 `yaml:"partner_actor_id,omitempty"`
	DigestTime     string `yaml:"digest_time,omitempty"`
}

// SeedFile is the on-disk layout of a seed users file.
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeedUsers reads and parses a YAML seed file.
func LoadSeedUsers(path string) ([]SeedUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	return file.Users, nil
}
