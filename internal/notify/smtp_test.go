package notify

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"net"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/errors"
)

// fakeSMTP is a single-session SMTPS server that accepts PLAIN auth for
// one username/password pair and records what it receives.
type fakeSMTP struct {
	addr      string
	tlsConfig *tls.Config

	mu    sync.Mutex
	from  string
	rcpts []string
	data  string
	done  chan struct{}
}

func newFakeSMTP(t *testing.T, user, pass string) *fakeSMTP {
	t.Helper()

	// Borrow httptest's certificate, valid for 127.0.0.1.
	ts := httptest.NewTLSServer(nil)
	certs := ts.TLS.Certificates
	pool := x509.NewCertPool()
	pool.AddCert(ts.Certificate())
	ts.Close()

	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: certs})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	f := &fakeSMTP{
		addr:      ln.Addr().String(),
		tlsConfig: &tls.Config{RootCAs: pool},
		done:      make(chan struct{}),
	}

	go func() {
		defer close(f.done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		f.serve(conn, user, pass)
	}()

	return f
}

func (f *fakeSMTP) serve(conn net.Conn, user, pass string) {
	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 localhost ESMTP fake")

	want := base64.StdEncoding.EncodeToString([]byte("\x00" + user + "\x00" + pass))

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.Fields(line + " ")[0])
		switch verb {
		case "EHLO", "HELO":
			tp.PrintfLine("250-localhost")
			tp.PrintfLine("250 AUTH PLAIN")
		case "AUTH":
			if strings.TrimSpace(strings.TrimPrefix(line, "AUTH PLAIN")) == want {
				tp.PrintfLine("235 2.7.0 Authentication successful")
			} else {
				tp.PrintfLine("535 5.7.8 Username and Password not accepted")
			}
		case "MAIL":
			f.mu.Lock()
			f.from = line
			f.mu.Unlock()
			tp.PrintfLine("250 OK")
		case "RCPT":
			f.mu.Lock()
			f.rcpts = append(f.rcpts, line)
			f.mu.Unlock()
			tp.PrintfLine("250 OK")
		case "DATA":
			tp.PrintfLine("354 Go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.data = string(data)
			f.mu.Unlock()
			tp.PrintfLine("250 Queued")
		case "QUIT":
			tp.PrintfLine("221 Bye")
			return
		default:
			tp.PrintfLine("502 Not implemented")
		}
	}
}

func (f *fakeSMTP) config() config.SMTPConfig {
	host, portStr, _ := net.SplitHostPort(f.addr)
	port, _ := strconv.Atoi(portStr)
	return config.SMTPConfig{
		Host:     host,
		Port:     port,
		Username: "alerts@example.com",
		Password: "app-password",
		To:       []string{"me@example.com", "ops@example.com"},
		Timeout:  5 * time.Second,
	}
}

func (f *fakeSMTP) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(5 * time.Second):
		t.Fatal("smtp session did not finish")
	}
}

func TestSMTPNotifier_Notify(t *testing.T) {
	srv := newFakeSMTP(t, "alerts@example.com", "app-password")
	n := NewSMTPNotifier(srv.config(), WithTLSConfig(srv.tlsConfig))

	msg := Message{
		Target:  "epbc",
		Subject: "UBC EducationPlannerBC is Back Online!",
		Body:    "The EducationPlannerBC application is now available.\n\nVisit: https://www.educationplannerbc.ca/",
		URL:     "https://www.educationplannerbc.ca/",
	}
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	srv.wait(t)

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if !strings.Contains(srv.from, "<alerts@example.com>") {
		t.Errorf("MAIL FROM = %q, want sender defaulted to username", srv.from)
	}
	if len(srv.rcpts) != 2 {
		t.Errorf("got %d recipients, want 2", len(srv.rcpts))
	}
	// ReadDotBytes normalizes CRLF to LF.
	if !strings.Contains(srv.data, "Subject: UBC EducationPlannerBC is Back Online!\n") {
		t.Errorf("message missing subject:\n%s", srv.data)
	}
	if !strings.Contains(srv.data, "Visit: https://www.educationplannerbc.ca/") {
		t.Errorf("message missing body:\n%s", srv.data)
	}
	if strings.Contains(srv.data, "app-password") {
		t.Error("message must not contain the password")
	}
}

func TestSMTPNotifier_AuthFailure(t *testing.T) {
	srv := newFakeSMTP(t, "alerts@example.com", "other-password")
	n := NewSMTPNotifier(srv.config(), WithTLSConfig(srv.tlsConfig))

	err := n.Notify(context.Background(), Message{Subject: "s", Body: "b"})
	if err == nil {
		t.Fatal("expected auth error")
	}

	var gidoErr *errors.Error
	if !errors.As(err, &gidoErr) {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if gidoErr.Kind != errors.KindNotification {
		t.Errorf("Kind = %q, want notification", gidoErr.Kind)
	}
	if !gidoErr.Auth {
		t.Error("auth failure should be tagged")
	}
	if strings.Contains(err.Error(), "other-password") || strings.Contains(err.Error(), "app-password") {
		t.Errorf("error leaks a password: %v", err)
	}
}

func TestSMTPNotifier_ConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	n := NewSMTPNotifier(config.SMTPConfig{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Username: "u",
		Password: "p",
		To:       []string{"x@example.com"},
		Timeout:  time.Second,
	})

	err = n.Notify(context.Background(), Message{Subject: "s"})
	if !errors.IsKind(err, errors.KindNotification) {
		t.Fatalf("expected notification error, got %v", err)
	}
	var gidoErr *errors.Error
	errors.As(err, &gidoErr)
	if gidoErr.Auth {
		t.Error("transport failure should not be tagged as auth")
	}
}

func TestSMTPNotifier_Timeout(t *testing.T) {
	// A listener that accepts but never greets.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		bufio.NewReader(conn).ReadByte()
	}()

	addr := ln.Addr().(*net.TCPAddr)
	n := NewSMTPNotifier(config.SMTPConfig{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		Username: "u",
		Password: "p",
		To:       []string{"x@example.com"},
		Timeout:  100 * time.Millisecond,
	})

	start := time.Now()
	err = n.Notify(context.Background(), Message{Subject: "s"})
	if !errors.IsKind(err, errors.KindNotification) {
		t.Fatalf("expected notification error, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("Notify took %v, timeout not applied", time.Since(start))
	}
}

func TestSMTPNotifier_BuildMessage(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{
		Username: "alerts@example.com",
		From:     "Gido <alerts@example.com>",
		To:       []string{"me@example.com"},
	})
	n.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	raw := string(n.buildMessage(Message{
		Subject: "Back\r\nBcc: evil@example.com",
		Body:    "line one\nline two",
	}))

	if !strings.Contains(raw, "From: Gido <alerts@example.com>\r\n") {
		t.Errorf("missing From header:\n%s", raw)
	}
	if strings.Contains(raw, "\r\nBcc:") {
		t.Errorf("subject injected a header:\n%s", raw)
	}
	if !strings.Contains(raw, "Date: Fri, 02 Jan 2026 03:04:05 +0000\r\n") {
		t.Errorf("missing Date header:\n%s", raw)
	}
	if !strings.Contains(raw, "\r\n\r\nline one\r\nline two\r\n") {
		t.Errorf("body not CRLF-normalized:\n%q", raw)
	}
}

func TestSMTPNotifier_NonASCIISubject(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Username: "a@example.com", To: []string{"b@example.com"}})
	raw := string(n.buildMessage(Message{Subject: "Café is back"}))
	if !strings.Contains(raw, "Subject: =?utf-8?q?") {
		t.Errorf("non-ASCII subject should be encoded:\n%s", raw)
	}
}

func TestNewSMTPNotifier_Defaults(t *testing.T) {
	n := NewSMTPNotifier(config.SMTPConfig{Host: "smtp.example.com", Port: 465, Username: "bot@example.com"})
	if n.from != "bot@example.com" {
		t.Errorf("from = %q, want username", n.from)
	}
	if n.timeout != config.DefaultSMTPTimeout {
		t.Errorf("timeout = %v, want default", n.timeout)
	}
	if n.addr() != "smtp.example.com:465" {
		t.Errorf("addr() = %q", n.addr())
	}
	if n.Name() != "smtp" {
		t.Errorf("Name() = %q", n.Name())
	}
}
