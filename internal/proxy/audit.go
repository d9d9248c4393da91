package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// auditLogger logs requests to a file with size-based rotation.
// Entries never contain the API key or message content.
type auditLogger struct {
	path    string
	maxSize int64 // max file size in bytes before rotation (0 = no limit)
	file    *os.File
	size    int64
	mu      sync.Mutex
	logger  *slog.Logger
}

const (
	defaultAuditMaxSize = 50 * 1024 * 1024 // 50 MiB
	auditKeepFiles      = 3                // keep current + 3 rotated files
)

type auditEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Duration     time.Duration `json:"duration_ns"`
	RequestID    string        `json:"request_id"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	StatusCode   int           `json:"status_code"`
	Model        string        `json:"model,omitempty"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	RequestSize  int64         `json:"request_size"`
	ResponseSize int64         `json:"response_size,omitempty"`
	RemoteAddr   string        `json:"remote_addr"`
}

func newAuditLogger(path string, logger *slog.Logger) (*auditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	info, _ := f.Stat()
	var size int64
	if info != nil {
		size = info.Size()
	}
	return &auditLogger{
		path:    path,
		maxSize: defaultAuditMaxSize,
		file:    f,
		size:    size,
		logger:  logger,
	}, nil
}

func (al *auditLogger) log(entry auditEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		al.logger.Warn("audit log encode failed", "error", err)
		return
	}
	data = append(data, '\n')

	al.mu.Lock()
	defer al.mu.Unlock()

	n, err := al.file.Write(data)
	al.size += int64(n)
	if err != nil {
		al.logger.Warn("audit log write failed", "error", err)
		return
	}

	if al.maxSize > 0 && al.size >= al.maxSize {
		al.rotate()
	}
}

func (al *auditLogger) rotate() {
	al.file.Close()

	// Shift existing rotated files: .3 -> deleted, .2 -> .3, .1 -> .2, current -> .1
	for i := auditKeepFiles; i > 0; i-- {
		old := fmt.Sprintf("%s.%d", al.path, i)
		if i == auditKeepFiles {
			os.Remove(old)
		}
		if i > 1 {
			prev := fmt.Sprintf("%s.%d", al.path, i-1)
			os.Rename(prev, old)
		} else {
			os.Rename(al.path, old)
		}
	}

	f, err := os.OpenFile(al.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		al.logger.Warn("audit log rotation failed", "error", err)
		return
	}
	al.file = f
	al.size = 0
}

func (al *auditLogger) close() error {
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.file.Close()
}
