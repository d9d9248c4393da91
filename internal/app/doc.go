// Package app provides the application context for gido.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
//
// # App Context
//
// The App struct holds core dependencies:
//
//	type App struct {
//	    Paths    *config.Paths          // File system paths
//	    Config   *config.Config         // Loaded configuration
//	    Executor system.CommandExecutor // Runs notification hooks
//	}
//
// # Creating an App
//
// Use New with functional options:
//
//	// Production usage
//	a := app.New()
//	if err := a.LoadConfig(""); err != nil {
//	    return err
//	}
//
//	// Testing with custom dependencies
//	a := app.New(
//	    app.WithPaths(testPaths),
//	    app.WithConfig(testConfig),
//	    app.WithExecutor(system.NewMockExecutor()),
//	)
//
// # Available Options
//
//	WithPaths(paths)     // Custom path configuration
//	WithConfig(cfg)      // Preloaded configuration, skips LoadConfig
//	WithExecutor(exec)   // Custom command executor
package app
