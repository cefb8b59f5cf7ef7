package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Connection parameters live in their own section of an external config file
// rather than in the environment, so the same file can be shared with other
// tooling. A missing file or section is a startup-fatal error for the caller.

type databaseSection struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type configFile struct {
	Postgresql *databaseSection `yaml:"postgresql"`
}

// LoadDatabaseURL reads the postgresql section of the config file at path and
// assembles a connection string from it.
func LoadDatabaseURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading config file '%s': %w", path, err)
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("error parsing config file '%s': %w", path, err)
	}

	if cfg.Postgresql == nil {
		return "", fmt.Errorf("section 'postgresql' not found in '%s'", path)
	}

	section := cfg.Postgresql
	if section.Host == "" || section.Port == 0 || section.User == "" || section.Password == "" || section.Database == "" {
		return "", fmt.Errorf("section 'postgresql' in '%s' must set host, port, user, password, and database", path)
	}

	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s",
		section.User, section.Password, section.Host, section.Port, section.Database), nil
}
