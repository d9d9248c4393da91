package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/errors"
	"github.com/gido-dev/gido/internal/logging"
	"github.com/gido-dev/gido/internal/system"
)

type recordingNotifier struct {
	name string
	err  error
	msgs []Message
}

func (r *recordingNotifier) Notify(ctx context.Context, msg Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingNotifier) Name() string { return r.name }

func TestMulti_Notify(t *testing.T) {
	a := &recordingNotifier{name: "a"}
	b := &recordingNotifier{name: "b", err: errors.NotificationError("b down", true, nil)}
	c := &recordingNotifier{name: "c"}

	m := Multi{a, b, c}
	err := m.Notify(context.Background(), Message{Subject: "hello"})

	if len(a.msgs) != 1 || len(b.msgs) != 1 || len(c.msgs) != 1 {
		t.Error("every notifier should receive the message even after a failure")
	}
	if !errors.IsKind(err, errors.KindNotification) {
		t.Fatalf("expected joined notification error, got %v", err)
	}
	var gidoErr *errors.Error
	if !errors.As(err, &gidoErr) || !gidoErr.Auth {
		t.Error("auth tag should survive joining")
	}
	if m.Name() != "a+b+c" {
		t.Errorf("Name() = %q, want a+b+c", m.Name())
	}
}

func TestMulti_NoErrors(t *testing.T) {
	m := Multi{&recordingNotifier{name: "a"}}
	if err := m.Notify(context.Background(), Message{}); err != nil {
		t.Errorf("Notify() = %v, want nil", err)
	}
}

func TestLogNotifier(t *testing.T) {
	var out bytes.Buffer
	orig := logging.Stdout
	logging.Stdout = &out
	defer func() { logging.Stdout = orig }()

	n := NewLogNotifier()
	err := n.Notify(context.Background(), Message{
		Subject: "Back Online!",
		Body:    "first line\n\nVisit: https://example.com/",
	})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Back Online!", "first line", "Visit: https://example.com/"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if n.Name() != "log" {
		t.Errorf("Name() = %q", n.Name())
	}
}

func TestNewCommandNotifier(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		argv    []string
		wantErr bool
	}{
		{"simple", "notify-send done", []string{"notify-send", "done"}, false},
		{"quoted", `curl -d "page is back" 'https://ntfy.sh/my topic'`, []string{"curl", "-d", "page is back", "https://ntfy.sh/my topic"}, false},
		{"empty", "   ", nil, true},
		{"unterminated quote", `echo "oops`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewCommandNotifier(tt.line, system.NewMockExecutor(), time.Second)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCommandNotifier(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if fmt.Sprint(n.argv) != fmt.Sprint(tt.argv) {
				t.Errorf("argv = %q, want %q", n.argv, tt.argv)
			}
		})
	}
}

func TestCommandNotifier_Notify(t *testing.T) {
	exec := system.NewMockExecutor()
	n, err := NewCommandNotifier(`ntfy publish "my topic"`, exec, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	msg := Message{Target: "epbc", Subject: "Back", Body: "body text", URL: "https://example.com/"}
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	cmd, ok := exec.LastCommand()
	if !ok {
		t.Fatal("no command executed")
	}
	if cmd.Name != "ntfy" || fmt.Sprint(cmd.Args) != fmt.Sprint([]string{"publish", "my topic"}) {
		t.Errorf("command = %s %q", cmd.Name, cmd.Args)
	}
	if cmd.Stdin != "body text" {
		t.Errorf("stdin = %q, want body", cmd.Stdin)
	}

	env := strings.Join(cmd.Env, "\n")
	for _, want := range []string{"GIDO_TARGET=epbc", "GIDO_SUBJECT=Back", "GIDO_BODY=body text", "GIDO_URL=https://example.com/"} {
		if !strings.Contains(env, want) {
			t.Errorf("env missing %q: %v", want, cmd.Env)
		}
	}
	if n.Command() != `ntfy publish 'my topic'` {
		t.Errorf("Command() = %q", n.Command())
	}
}

func TestCommandNotifier_Failure(t *testing.T) {
	exec := system.NewMockExecutor()
	exec.AddResponse("false", []byte("hook exploded\n"), fmt.Errorf("exit status 1"))

	n, err := NewCommandNotifier("false", exec, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	err = n.Notify(context.Background(), Message{})
	if !errors.IsKind(err, errors.KindNotification) {
		t.Fatalf("expected notification error, got %v", err)
	}
	if !strings.Contains(err.Error(), "hook exploded") {
		t.Errorf("error should include command output: %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	t.Run("dev mode", func(t *testing.T) {
		cfg := config.Default()
		n, err := FromConfig(cfg, system.NewMockExecutor())
		if err != nil {
			t.Fatal(err)
		}
		if n.Name() != "log" {
			t.Errorf("Name() = %q, want log", n.Name())
		}
	})

	t.Run("smtp", func(t *testing.T) {
		cfg := config.Default()
		cfg.SMTP.Username = "bot@example.com"
		cfg.SMTP.Password = "pw"
		cfg.SMTP.To = []string{"me@example.com"}
		n, err := FromConfig(cfg, system.NewMockExecutor())
		if err != nil {
			t.Fatal(err)
		}
		if n.Name() != "smtp" {
			t.Errorf("Name() = %q, want smtp", n.Name())
		}
	})

	t.Run("with hook", func(t *testing.T) {
		cfg := config.Default()
		cfg.Monitor.OnOnline = "notify-send back"
		n, err := FromConfig(cfg, system.NewMockExecutor())
		if err != nil {
			t.Fatal(err)
		}
		if n.Name() != "log+command" {
			t.Errorf("Name() = %q, want log+command", n.Name())
		}
	})

	t.Run("bad hook", func(t *testing.T) {
		cfg := config.Default()
		cfg.Monitor.OnOnline = `echo "unterminated`
		_, err := FromConfig(cfg, system.NewMockExecutor())
		if !errors.IsKind(err, errors.KindConfig) {
			t.Errorf("expected config error, got %v", err)
		}
	})
}
