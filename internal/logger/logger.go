// Package logger provides the gate's structured logging, built on
// go.uber.org/zap with optional lumberjack-backed file rotation. A single
// global logger is configured once at startup and retrieved by package
// consumers; its level can be changed at runtime via an atomic level.
package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Environment variable consulted when no explicit level is configured.
const envLogLevel = "HSMS_LOG_LEVEL"

// Options configures the global logger (§10.2).
type Options struct {
	Stdout     bool   // write to stdout instead of Filename
	Level      string // debug, info, warn, error
	Filename   string // rotated log file path, ignored when Stdout is true
	MaxSizeMB  int    // lumberjack MaxSize
	MaxAgeDays int    // lumberjack MaxAge
	MaxBackups int    // lumberjack MaxBackups
}

var (
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	global      *zap.Logger
	globalOnce  sync.Once
	mu          sync.Mutex
)

// Init builds the global logger from opt. Safe to call more than once; each
// call replaces the previous configuration (later calls, e.g. in tests,
// intentionally override the first).
func Init(opt Options) {
	mu.Lock()
	defer mu.Unlock()

	atomicLevel.SetLevel(parseLevel(opt.Level))
	global = newLogger(opt, resolveWriter(opt))
}

func resolveWriter(opt Options) zapcore.WriteSyncer {
	if opt.Stdout || opt.Filename == "" {
		return zapcore.AddSync(os.Stdout)
	}
	if err := os.MkdirAll(filepath.Dir(opt.Filename), 0o755); err != nil {
		panic(err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   opt.Filename,
		MaxSize:    opt.MaxSizeMB,
		MaxAge:     opt.MaxAgeDays,
		MaxBackups: opt.MaxBackups,
		LocalTime:  false,
	})
}

// newLogger builds a logger around an arbitrary writer, sharing the package
// encoder config and atomic level. Factored out so tests can point it at an
// in-memory buffer instead of stdout/a rotated file.
func newLogger(opt Options, w zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	core := zapcore.NewCore(encoder, w, atomicLevel)
	return zap.New(core, zap.AddCaller())
}

func parseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		if env := strings.ToLower(strings.TrimSpace(os.Getenv(envLogLevel))); env != "" {
			s = env
		}
	}
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error", "err":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel changes the runtime log level of the global logger.
func SetLevel(level string) {
	atomicLevel.SetLevel(parseLevel(level))
}

// L returns the global logger, initializing it with stdout defaults on
// first use if Init was never called explicitly.
func L() *zap.Logger {
	globalOnce.Do(func() {
		mu.Lock()
		initialized := global != nil
		mu.Unlock()
		if !initialized {
			Init(Options{Stdout: true, Level: "info"})
		}
	})
	mu.Lock()
	defer mu.Unlock()
	return global
}

// WithConn attaches per-connection correlation fields (§11: google/uuid
// connection ids).
func WithConn(l *zap.Logger, connID, peerAddr string) *zap.Logger {
	return l.With(zap.String("conn_id", connID), zap.String("peer_addr", peerAddr))
}

// WithMessage attaches decoded-message metadata fields for a data or
// control message dispatch.
func WithMessage(l *zap.Logger, messageType string, deviceID uint16, s, f uint8, systemBytes int32) *zap.Logger {
	return l.With(
		zap.String("message_type", messageType),
		zap.Uint16("device_id", deviceID),
		zap.Uint8("s", s),
		zap.Uint8("f", f),
		zap.Int32("system_bytes", systemBytes),
	)
}
