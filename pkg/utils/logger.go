package utils

import (
	"math"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig configures the structured logger used across the daemon: the
// scheduler, the exchange manager and the reference connectors all pull
// fields out of the same global logger.
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal (default info)
	Format      string // json (default) or text
	Development bool   // caller info, colorized level names, DPanic panics
	Output      string // file path; empty means stderr
}

// Logger wraps *zap.Logger with the domain-specific field helpers below and
// a cached SugaredLogger for the printf-style global functions.
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	case "info":
		return zapcore.InfoLevel
	default:
		return zapcore.InfoLevel
	}
}

func buildEncoder(format string, development bool) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "message"
	encCfg.LevelKey = "level"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if strings.EqualFold(format, "text") {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

func buildSink(path string) zapcore.WriteSyncer {
	if path == "" {
		return zapcore.AddSync(os.Stderr)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// fall back to stderr rather than fail daemon startup over a log path
		return zapcore.AddSync(os.Stderr)
	}
	return zapcore.AddSync(f)
}

// InitLogger builds a standalone Logger from the given config. Never returns
// nil, even when Output points at an unwritable path.
func InitLogger(cfg LogConfig) *Logger {
	core := zapcore.NewCore(
		buildEncoder(cfg.Format, cfg.Development),
		buildSink(cfg.Output),
		parseLevel(cfg.Level),
	)

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}

	zl := zap.New(core, opts...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// With returns a child logger carrying the given fields on every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{Logger: child, sugar: child.Sugar()}
}

func (l *Logger) WithComponent(name string) *Logger { return l.With(Component(name)) }
func (l *Logger) WithExchange(name string) *Logger  { return l.With(Exchange(name)) }
func (l *Logger) WithSymbol(symbol string) *Logger  { return l.With(Symbol(symbol)) }
func (l *Logger) WithPairID(id int) *Logger         { return l.With(PairID(id)) }

// Sugar exposes the printf-style logger for call sites that would rather not
// build zap.Field values.
func (l *Logger) Sugar() *zap.SugaredLogger { return l.sugar }

// ============================================================
// Global logger
// ============================================================

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// GetGlobalLogger lazily initializes the process-wide logger with defaults
// (info level, JSON, stderr) the first time it is needed.
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// InitGlobalLogger builds a logger from cfg and installs it as the global.
func InitGlobalLogger(cfg LogConfig) *Logger {
	l := InitLogger(cfg)
	SetGlobalLogger(l)
	return l
}

// SetGlobalLogger installs an already-built logger as the global one; used
// by tests to capture output and by main() once config is loaded.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// L is shorthand for GetGlobalLogger(), for call sites doing utils.L().Info(...).
func L() *Logger { return GetGlobalLogger() }

func Debug(msg string, fields ...zap.Field) { L().Logger.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { L().Logger.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { L().Logger.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Logger.Error(msg, fields...) }

func Debugf(format string, args ...interface{}) { L().sugar.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { L().sugar.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { L().sugar.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { L().sugar.Errorf(format, args...) }

// ============================================================
// Domain field constructors
// ============================================================

func Exchange(name string) zap.Field  { return zap.String("exchange", name) }
func Symbol(symbol string) zap.Field  { return zap.String("symbol", symbol) }
func PairID(id int) zap.Field         { return zap.Int("pair_id", id) }
func OrderID(id string) zap.Field     { return zap.String("order_id", id) }
func Price(v float64) zap.Field       { return zap.Float64("price", v) }
func Volume(v float64) zap.Field      { return zap.Float64("volume", v) }
func Spread(v float64) zap.Field      { return zap.Float64("spread", v) }
func PNL(v float64) zap.Field         { return zap.Float64("pnl", v) }
func Side(side string) zap.Field      { return zap.String("side", side) }
func State(state string) zap.Field    { return zap.String("state", state) }
func Latency(ms float64) zap.Field    { return zap.Float64("latency_ms", ms) }
func RequestID(id string) zap.Field   { return zap.String("request_id", id) }
func UserID(id int) zap.Field         { return zap.Int("user_id", id) }
func Component(name string) zap.Field { return zap.String("component", name) }

// Re-exported zap constructors so call sites only need to import this package.
func String(key, val string) zap.Field          { return zap.String(key, val) }
func Int(key string, val int) zap.Field         { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field     { return zap.Int64(key, val) }
func Float64(key string, v float64) zap.Field   { return zap.Float64(key, v) }
func Bool(key string, v bool) zap.Field         { return zap.Bool(key, v) }
func Err(err error) zap.Field                   { return zap.Error(err) }
func Any(key string, val interface{}) zap.Field { return zap.Any(key, val) }

// fieldsToInterface flattens zap.Field values into alternating key/value
// pairs for call sites bridging into the sugared (printf-style) API.
func fieldsToInterface(fields []zap.Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, fieldValue(f))
	}
	return out
}

func fieldValue(f zap.Field) interface{} {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.BoolType:
		return f.Integer == 1
	case zapcore.Float64Type:
		return math.Float64frombits(uint64(f.Integer))
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return f.Integer
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return err.Error()
		}
		return f.Interface
	default:
		return f.Interface
	}
}
