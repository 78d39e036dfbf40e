package observability

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/logsweep/logsweep/internal/config"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a small leveled logger writing timestamped lines to a single
// destination. Safe for concurrent use.
type Logger struct {
	mu     sync.Mutex
	level  Level
	out    io.Writer
	closer io.Closer
	now    func() time.Time
}

func New(level Level, out io.Writer) *Logger {
	return &Logger{level: level, out: out, now: time.Now}
}

// NewFromConfig builds the program logger: stderr always, plus a rotating
// file under cfg.LogFolder when save_logs is on. MaxBackups enforces the
// retained-file limit, so old program logs are pruned on rotation.
func NewFromConfig(cfg config.Config) *Logger {
	level := ParseLevel(cfg.LogLevel)
	if !cfg.SaveLogs {
		return New(level, os.Stderr)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogFolder, "logsweep.log"),
		MaxSize:    10,
		MaxBackups: cfg.MaxLogFiles,
	}
	logger := New(level, io.MultiWriter(os.Stderr, rotator))
	logger.closer = rotator
	return logger
}

func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	stamp := l.now().UTC().Format("2006-01-02 15:04:05.000")
	line := fmt.Sprintf("%s | %-5s | %s\n", stamp, level, fmt.Sprintf(format, args...))
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line)
}
