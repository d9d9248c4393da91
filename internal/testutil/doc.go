// Package testutil provides test fixtures and utilities.
//
// # Fixtures
//
// Fixtures are embedded using go:embed:
//
//	fixtures/valid_config.toml
//	fixtures/invalid_config.toml
//	fixtures/maintenance.html
//	fixtures/online.html
//
// Helper functions load them into typed values:
//
//	cfg, err := testutil.ValidConfig()
//	cfg, err := testutil.InvalidConfig()
//	html := testutil.MaintenancePage()
//
// # Test Environment
//
// NewTestEnv builds a temporary config, state and secrets layout, a local
// page server used as the monitor target, and a mock command executor, and
// installs them as app.Default:
//
//	env := testutil.NewTestEnv(t)
//	defer env.Cleanup()
//
//	env.Page.SetMaintenance(false)
//	// run a command against env.App
package testutil
