// Package eventlog appends tab-separated, uuid-stamped lines to persistent
// log files in a configurable directory. It backs the request log and the
// error logs that survive process restarts.
package eventlog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger writes event lines to files under a single directory.
type Logger struct {
	dir string
	mu  sync.Mutex
}

// New creates a Logger rooted at dir, creating the directory if needed.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return &Logger{dir: dir}, nil
}

// LogEvents appends a single "date\ttime\tuuid\tmessage" line to the named
// file. Failures are logged to the console and swallowed so logging can
// never take a request down.
func (l *Logger) LogEvents(message, filename string) {
	line := fmt.Sprintf("%s\t%s\t%s\n",
		time.Now().Format("20060102\t15:04:05"),
		uuid.New().String(),
		message,
	)

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(l.dir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("eventlog: failed to open %s: %v", filename, err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		log.Printf("eventlog: failed to write to %s: %v", filename, err)
	}
}
