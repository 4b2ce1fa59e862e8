package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rfidenter/uhfbridge/pkg/config"
)

// Levels in increasing severity.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger wraps the standard log.Logger with a level threshold. Output goes
// to stderr since stdout carries the bridge protocol.
type Logger struct {
	*log.Logger
	level int
	file  io.Closer
}

// New returns a logger writing to stderr at info level.
func New(prefix string) *Logger {
	return NewWithWriter(prefix, os.Stderr)
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(prefix string, w io.Writer) *Logger {
	return &Logger{Logger: log.New(w, prefix+" ", log.LstdFlags|log.Lmsgprefix), level: LevelInfo}
}

// ParseLevel maps a level name to its value; unknown names map to info.
func ParseLevel(name string) int {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Configure applies logging settings from config.
func (l *Logger) Configure(cfg config.LoggingConfig) error {
	if l == nil || l.Logger == nil {
		return nil
	}
	if cfg.Level != "" {
		l.level = ParseLevel(cfg.Level)
	}
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o700); err != nil {
			return err
		}
		writer, err := newRollingFile(cfg.FilePath, cfg.FileMaxSize)
		if err != nil {
			return err
		}
		l.file = writer
		l.SetOutput(io.MultiWriter(l.Writer(), writer))
	}
	return nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level int) bool {
	return l != nil && level >= l.level
}

func (l *Logger) logf(level int, format string, v ...any) {
	if !l.Enabled(level) {
		return
	}
	l.Output(3, levelTags[level]+" "+fmt.Sprintf(format, v...))
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...any) { l.logf(LevelDebug, format, v...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...any) { l.logf(LevelInfo, format, v...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, v ...any) { l.logf(LevelWarn, format, v...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...any) { l.logf(LevelError, format, v...) }

var levelTags = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// Printer returns a Printf sink that logs at level, for components that
// only take a Printf interface.
func (l *Logger) Printer(level int) Printer {
	if level < LevelDebug || level > LevelError {
		level = LevelInfo
	}
	return printer{l, level}
}

// Printer is the minimal logging interface other packages accept.
type Printer interface {
	Printf(format string, v ...any)
}

type printer struct {
	l     *Logger
	level int
}

func (p printer) Printf(format string, v ...any) { p.l.logf(p.level, format, v...) }

type rollingFile struct {
	mu   sync.Mutex
	path string
	max  int
	file *os.File
}

func newRollingFile(path string, maxMB int) (*rollingFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &rollingFile{path: path, max: maxMB, file: f}, nil
}

func (r *rollingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 {
		if info, err := r.file.Stat(); err == nil && info.Size()+int64(len(p)) > int64(r.max)*1024*1024 {
			r.file.Close()
			os.Rename(r.path, r.path+".1")
			newFile, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return 0, err
			}
			r.file = newFile
		}
	}
	return r.file.Write(p)
}

func (r *rollingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
