// Package testutil provides test utilities for command tests
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gido-dev/gido/internal/app"
	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/system"
)

// TestEnv holds the test environment
type TestEnv struct {
	T        *testing.T
	TmpDir   string
	Paths    *config.Paths
	Config   *config.Config
	Executor *system.MockExecutor
	Page     *PageServer
	App      *app.App
	cleanup  func()
}

// NewTestEnv creates a test environment whose monitor target is a local
// page server, with a mock executor for notification hooks.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()

	paths := config.PathsFor(
		filepath.Join(tmpDir, "config"),
		filepath.Join(tmpDir, "state"),
		filepath.Join(tmpDir, "secrets"),
	)

	// Create directories
	for _, dir := range []string{
		paths.ConfigDir,
		paths.StateDir,
		paths.SecretsDir,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	pageServer := NewPageServer(t)

	cfg := config.Default()
	cfg.StateDir = paths.StateDir
	cfg.SecretsDir = paths.SecretsDir
	cfg.Monitor.Name = "test-target"
	cfg.Monitor.URL = pageServer.URL()

	// Write config so commands that load from disk see the same values
	data := fmt.Sprintf("state_dir = %q\nsecrets_dir = %q\n\n[monitor]\nname = %q\nurl = %q\n",
		cfg.StateDir, cfg.SecretsDir, cfg.Monitor.Name, cfg.Monitor.URL)
	if err := os.WriteFile(paths.ConfigFile, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	mockExec := system.NewMockExecutor()

	testApp := app.New(
		app.WithPaths(paths),
		app.WithConfig(cfg),
		app.WithExecutor(mockExec),
	)

	// Save original default and set test app
	originalDefault := app.Default
	app.SetDefault(testApp)

	env := &TestEnv{
		T:        t,
		TmpDir:   tmpDir,
		Paths:    paths,
		Config:   cfg,
		Executor: mockExec,
		Page:     pageServer,
		App:      testApp,
		cleanup: func() {
			app.SetDefault(originalDefault)
		},
	}

	return env
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
	}
}

// AddSecret writes a secret file below the secrets directory.
func (e *TestEnv) AddSecret(name, value string) string {
	e.T.Helper()

	path := filepath.Join(e.Paths.SecretsDir, name)
	if err := os.WriteFile(path, []byte(value), 0600); err != nil {
		e.T.Fatalf("Failed to write secret: %v", err)
	}
	return path
}

// PageServer serves a page that can be switched between maintenance and
// online.
type PageServer struct {
	server *httptest.Server

	mu     sync.Mutex
	body   string
	status int
	hits   int
}

// NewPageServer starts a page server that shows the maintenance page.
func NewPageServer(t *testing.T) *PageServer {
	t.Helper()

	p := &PageServer{body: MaintenancePage(), status: http.StatusOK}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		body, status := p.body, p.status
		p.hits++
		p.mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(p.server.Close)
	return p
}

// URL returns the page URL.
func (p *PageServer) URL() string {
	return p.server.URL + "/"
}

// SetMaintenance switches between the maintenance and online pages.
func (p *PageServer) SetMaintenance(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = http.StatusOK
	if on {
		p.body = MaintenancePage()
	} else {
		p.body = OnlinePage()
	}
}

// SetStatus makes the server answer with status and a short body.
func (p *PageServer) SetStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
	p.body = http.StatusText(status)
}

// Hits returns how many requests the server has answered.
func (p *PageServer) Hits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits
}
