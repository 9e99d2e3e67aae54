// Package seclog is the security audit log: warnings and above, appended to a
// dedicated rotating file, separate from the general application logs.
package seclog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/soundvault/soundvault-back/internal/config"
)

// Logger wraps the dedicated security sink. It is a distinct type so fx can
// inject it alongside the general *zap.SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

func New(cfg *config.Config) (*Logger, error) {
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.SecurityLogFile,
		MaxSize:    10, // MB
		MaxBackups: 10,
		MaxAge:     90, // days
	})

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, zapcore.WarnLevel)
	return &Logger{zap.New(core).Sugar()}, nil
}

// Nop returns a logger that discards everything; used by tests.
func Nop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}
