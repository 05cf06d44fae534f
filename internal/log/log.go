// Package log provides the logging backend, built around go-logging.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/op/go-logging.v1"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Backend is a leveled logging backend writing to stdout or a log file.
type Backend struct {
	logging.LeveledBackend
	sync.Mutex

	backend logging.LeveledBackend
	w       io.WriteCloser
}

// Log implements the logging.Backend interface.
func (b *Backend) Log(level logging.Level, calldepth int, rec *logging.Record) error {
	b.Lock()
	defer b.Unlock()
	return b.backend.Log(level, calldepth, rec)
}

// GetLevel implements the logging.Leveled interface.
func (b *Backend) GetLevel(module string) logging.Level {
	b.Lock()
	defer b.Unlock()
	return b.backend.GetLevel(module)
}

// SetLevel implements the logging.Leveled interface.
func (b *Backend) SetLevel(level logging.Level, module string) {
	b.Lock()
	defer b.Unlock()
	b.backend.SetLevel(level, module)
}

// IsEnabledFor implements the logging.Leveled interface.
func (b *Backend) IsEnabledFor(level logging.Level, module string) bool {
	b.Lock()
	defer b.Unlock()
	return b.backend.IsEnabledFor(level, module)
}

// GetLogger returns a per-module logger writing to the backend.
func (b *Backend) GetLogger(module string) *logging.Logger {
	l := logging.MustGetLogger(module)
	l.SetBackend(b)
	return l
}

// Close closes the underlying log file, if any.
func (b *Backend) Close() error {
	b.Lock()
	defer b.Unlock()
	return b.w.Close()
}

// New initializes a logging backend.  An empty file means stdout, disable
// sends everything to the bit bucket.
func New(file string, level string, disable bool) (*Backend, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	b := new(Backend)
	switch {
	case disable:
		b.w = nopCloser{io.Discard}
	case file == "":
		b.w = nopCloser{os.Stdout}
	default:
		const fileMode = 0600
		flags := os.O_CREATE | os.O_APPEND | os.O_WRONLY
		b.w, err = os.OpenFile(file, flags, fileMode)
		if err != nil {
			return nil, fmt.Errorf("log: failed to open log file: %v", err)
		}
	}

	logFmt := logging.MustStringFormatter("%{time:15:04:05.000} %{level:.4s} %{module}: %{message}")
	base := logging.NewLogBackend(b.w, "", 0)
	b.backend = logging.AddModuleLevel(logging.NewBackendFormatter(base, logFmt))
	b.backend.SetLevel(lvl, "")
	return b, nil
}

// ParseLevel maps a string to a go-logging level.
func ParseLevel(l string) (logging.Level, error) {
	switch strings.ToUpper(l) {
	case "ERROR":
		return logging.ERROR, nil
	case "WARNING":
		return logging.WARNING, nil
	case "NOTICE":
		return logging.NOTICE, nil
	case "INFO":
		return logging.INFO, nil
	case "DEBUG":
		return logging.DEBUG, nil
	default:
		return logging.CRITICAL, fmt.Errorf("log: invalid level: '%v'", l)
	}
}
