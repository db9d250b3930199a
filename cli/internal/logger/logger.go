// Package logger builds the slog logger for one invocation. Records go to a
// size-rotated file; nothing is written to the terminal.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"revise/cli/internal/erruser"
)

const (
	fileName   = "revise.log"
	maxSizeMB  = 5
	maxBackups = 3
	maxAgeDays = 28
)

// Options configures New.
type Options struct {
	// Path is the log file; empty means DefaultPath.
	Path string
	// Debug lowers the level from Info to Debug.
	Debug bool
	// Session is attached to every record as "session"; empty generates one.
	Session string
}

// DefaultPath returns <user cache dir>/revise/revise.log.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "revise", fileName), nil
}

// New returns a logger writing to a rotated file and the closer for that
// file. The caller must close it before exit.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	path := opts.Path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, nil, erruser.New("Could not locate the log directory.", err)
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, erruser.New("Could not create the log directory.", err)
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	session := opts.Session
	if session == "" {
		session = uuid.NewString()
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).With("session", session)
	return l, w, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
