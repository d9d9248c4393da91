package testutil

import (
	"embed"

	"github.com/BurntSushi/toml"

	"github.com/gido-dev/gido/internal/config"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// LoadConfigFixture decodes a TOML fixture over the defaults. It does not
// apply environment overrides or validate.
func LoadConfigFixture(name string) (*config.Config, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidConfig returns the valid config fixture.
func ValidConfig() (*config.Config, error) {
	return LoadConfigFixture("valid_config.toml")
}

// InvalidConfig returns the invalid config fixture.
func InvalidConfig() (*config.Config, error) {
	return LoadConfigFixture("invalid_config.toml")
}

// MaintenancePage returns an HTML page carrying the default maintenance marker.
func MaintenancePage() string {
	data, _ := LoadFixture("maintenance.html")
	return string(data)
}

// OnlinePage returns an HTML page without the maintenance marker.
func OnlinePage() string {
	data, _ := LoadFixture("online.html")
	return string(data)
}
