package log

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Options configures the process logger. File is optional; when set, lines go to
// stdout and to a rotating file.
type Options struct {
	Level string
	File  string
}

func New(opts Options) (*zap.Logger, error) {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "action",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     14,
			LocalTime:  true,
		}))
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.NewMultiWriteSyncer(sinks...), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}

// SetLogger replaces the process logger and returns the previous one.
func SetLogger(l *zap.Logger) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	old := base
	base = l
	return old
}

// L returns the process logger for code that has no request context.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func fieldsFor(c *fiber.Ctx, err error, extra map[string]any) []zap.Field {
	fs := make([]zap.Field, 0, 8+len(extra))
	if c != nil {
		fs = append(fs,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			fs = append(fs, zap.String("req_id", rid))
		}
		if uid, ok := c.Locals("user_id").(int64); ok && uid != 0 {
			fs = append(fs, zap.Int64("user_id", uid))
		}
	}
	if err != nil {
		fs = append(fs, zap.String("err", err.Error()))
	}
	if len(extra) > 0 {
		fs = append(fs, zap.Any("fields", extra))
	}
	return fs
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	L().Info(action, fieldsFor(c, nil, fields)...)
}

// Audit records state-changing actions (create, update, delete, login).
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	L().Info(action, append(fieldsFor(c, nil, fields), zap.Bool("audit", true))...)
}

// Security records rejected or suspicious requests.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	L().Warn(action, fieldsFor(c, nil, fields)...)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	L().Error(action, fieldsFor(c, err, fields)...)
}
